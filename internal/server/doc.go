// Package server implements the MCP (Model Context Protocol) server that
// exposes the feature tracker as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - tracker_strategies: List detectors, descriptors, metrics and selectors
//   - tracker_detect: Detect keypoints in one image with optional ROI and cap
//   - tracker_match: Detect, describe and match two frames, optionally
//     returning a side-by-side rendering as base64 PNG
//   - tracker_sequence: Run the sliding-window pipeline over an ordered list
//     of files and return per-frame reports plus a summary row
//   - tracker_cache_clear: Drop every cached frame
//
// Strategy names are case-insensitive. Omitted strategies default to
// SHITOMASI detection, BRIEF description and knn-ratio selection at 0.8.
//
// # Image Caching
//
// Frames loaded by tracker_detect and tracker_match are decoded to grayscale
// once and cached by path until tracker_cache_clear, so repeated calls on
// the same frames avoid disk I/O. tracker_sequence evicts its frames when
// it returns. Every tool call builds its own pipeline; no frame buffer is
// shared between calls.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which names the category
//     ("unsupported strategy", "invalid input", "incompatible descriptor",
//     "empty input")
//
// # Usage
//
//	srv := server.New(logger.Default(), version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

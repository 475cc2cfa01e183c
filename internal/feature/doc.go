// Package feature defines the data model shared by every stage of the tracking
// pipeline: keypoints, descriptors, matches and regions of interest.
//
// It also hosts the two small keypoint-set operations that run between
// detection and description (region filtering and response-based capping) and
// the keypoint size statistics used for diagnostics.
//
// # Coordinate System
//
// Keypoint positions use image coordinates with (0,0) at the top-left pixel,
// X increasing rightward and Y increasing downward. Positions are float64 so
// that sub-pixel detectors can report them without rounding.
//
// # Alignment
//
// A Descriptors value is index-aligned with the keypoint slice it was computed
// from: row i describes keypoint i. Every operation in this module that
// changes a keypoint slice (FilterRegion, RetainBest) must therefore run
// before descriptors are computed.
//
// # Errors
//
// The sentinel errors in errors.go form the pipeline's error taxonomy. Callers
// classify failures with errors.Is; producers wrap them with fmt.Errorf and %w
// so the context (strategy, frame, stage) survives.
package feature

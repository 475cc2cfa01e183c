package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/feature-tracker/internal/description"
	"github.com/ironsheep/feature-tracker/internal/detection"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
	"github.com/ironsheep/feature-tracker/internal/report"
	"github.com/ironsheep/feature-tracker/internal/tracking"
	"github.com/ironsheep/feature-tracker/internal/visual"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tracker_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warning("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "tracker_strategies":
		return s.handleStrategies()
	case "tracker_detect":
		return s.handleDetect(args)
	case "tracker_match":
		return s.handleMatch(args)
	case "tracker_sequence":
		return s.handleSequence(args)
	case "tracker_cache_clear":
		return s.handleCacheClear()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Missing arguments decode as the zero
// value.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", feature.ErrInvalidInput, err)
	}
	return nil
}

// === Strategy listing ===

// StrategiesResult lists every registered strategy name.
type StrategiesResult struct {
	Detectors   []string `json:"detectors"`
	Descriptors []string `json:"descriptors"`
	Metrics     []string `json:"metrics"`
	Selectors   []string `json:"selectors"`
}

func (s *Server) handleStrategies() (interface{}, error) {
	return &StrategiesResult{
		Detectors:   detection.Names(),
		Descriptors: description.Names(),
		Metrics:     []string{"binary", "float"},
		Selectors:   []string{"nn", "knn-ratio"},
	}, nil
}

// === Detection ===

type detectArgs struct {
	Path        string        `json:"path"`
	Detector    string        `json:"detector"`
	ROI         *feature.Rect `json:"roi,omitempty"`
	KeypointCap int           `json:"keypoint_cap"`
}

// DetectResult is the outcome of tracker_detect.
type DetectResult struct {
	Detector  string             `json:"detector"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Detected  int                `json:"detected"`
	Keypoints []feature.Keypoint `json:"keypoints"`
	Stats     *feature.SizeStats `json:"stats,omitempty"`
	Spread    *feature.Spread    `json:"spread,omitempty"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", feature.ErrInvalidInput)
	}
	if a.Detector == "" {
		a.Detector = "SHITOMASI"
	}
	if a.KeypointCap < 0 {
		return nil, fmt.Errorf("%w: keypoint cap %d < 0", feature.ErrInvalidInput, a.KeypointCap)
	}

	det, err := detection.New(a.Detector, detection.Options{})
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	kps, err := det.Detect(img)
	if err != nil {
		return nil, err
	}
	dims := imaging.Dimensions(img)
	result := &DetectResult{
		Detector: det.Name(),
		Width:    dims.Width,
		Height:   dims.Height,
		Detected: len(kps),
	}

	if a.ROI != nil {
		kps = feature.FilterRegion(kps, *a.ROI)
	}
	if a.KeypointCap > 0 {
		kps = feature.RetainBest(kps, a.KeypointCap)
	}
	result.Keypoints = kps

	if stats, err := feature.SizeStatistics(kps); err == nil {
		result.Stats = &stats
	}
	if spread, err := feature.PositionSpread(kps); err == nil {
		result.Spread = &spread
	}
	return result, nil
}

// === Pipeline tools ===

type pipelineArgs struct {
	Detector    string        `json:"detector"`
	Descriptor  string        `json:"descriptor"`
	Metric      string        `json:"metric"`
	Selector    string        `json:"selector"`
	Ratio       float64       `json:"ratio"`
	ROI         *feature.Rect `json:"roi,omitempty"`
	KeypointCap int           `json:"keypoint_cap"`
}

func (a pipelineArgs) config(buffer int) tracking.Config {
	cfg := tracking.Config{
		Detector:       a.Detector,
		Descriptor:     a.Descriptor,
		Metric:         a.Metric,
		Selector:       a.Selector,
		Ratio:          a.Ratio,
		BufferCapacity: buffer,
		ROI:            a.ROI,
		KeypointCap:    a.KeypointCap,
	}
	if cfg.Detector == "" {
		cfg.Detector = "SHITOMASI"
	}
	if cfg.Descriptor == "" {
		cfg.Descriptor = "BRIEF"
	}
	return cfg
}

type matchArgs struct {
	pipelineArgs
	PathA  string  `json:"path_a"`
	PathB  string  `json:"path_b"`
	Render bool    `json:"render"`
	Scale  float64 `json:"scale"`
}

// MatchResult is the outcome of tracker_match.
type MatchResult struct {
	Detector   string                 `json:"detector"`
	Descriptor string                 `json:"descriptor"`
	Frames     []tracking.FrameReport `json:"frames"`
	Matches    []feature.Match        `json:"matches"`
	Rendering  *visual.RenderResult   `json:"rendering,omitempty"`
}

func (s *Server) handleMatch(args json.RawMessage) (interface{}, error) {
	var a matchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.PathA == "" || a.PathB == "" {
		return nil, fmt.Errorf("%w: path_a and path_b are required", feature.ErrInvalidInput)
	}

	p, err := tracking.New(a.config(2), tracking.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	result := &MatchResult{Detector: p.Detector(), Descriptor: p.Descriptor()}
	for i, path := range []string{a.PathA, a.PathB} {
		img, err := s.cache.Load(path)
		if err != nil {
			return nil, err
		}
		rep, err := p.Process(i, img)
		if err != nil {
			return nil, err
		}
		result.Frames = append(result.Frames, *rep)
	}

	prev, _ := p.Buffer().Previous()
	cur, _ := p.Buffer().Latest()
	result.Matches = cur.Matches

	if a.Render {
		opts := visual.DefaultOptions()
		if a.Scale > 0 {
			opts.Scale = a.Scale
		}
		rendering, err := visual.RenderPNG(tracking.Pair{Previous: prev, Current: cur, Matches: cur.Matches}, opts)
		if err != nil {
			return nil, err
		}
		result.Rendering = rendering
	}
	return result, nil
}

type sequenceArgs struct {
	pipelineArgs
	Paths  []string `json:"paths"`
	Buffer int      `json:"buffer"`
}

// SequenceResult is the outcome of tracker_sequence.
type SequenceResult struct {
	Summary *tracking.Summary `json:"summary"`
	Row     report.Row        `json:"row"`
}

func (s *Server) handleSequence(args json.RawMessage) (interface{}, error) {
	var a sequenceArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("%w: paths is empty", feature.ErrEmptyInput)
	}

	p, err := tracking.New(a.config(a.Buffer), tracking.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	// A sequence streams every frame once; keep its frames out of the cache.
	defer func() {
		for _, path := range a.Paths {
			s.cache.Evict(path)
		}
		s.log.Debug("evicted %d sequence frames, cache holds %d images", len(a.Paths), s.cache.Len())
	}()

	summary, err := p.Run(&imaging.Paths{Files: a.Paths, Cache: s.cache})
	if err != nil {
		return nil, err
	}
	if len(summary.Frames) == 0 {
		return nil, errors.New("no frame could be processed")
	}
	return &SequenceResult{Summary: summary, Row: report.RowFromSummary(summary)}, nil
}

// === Cache ===

// CacheClearResult reports how many decoded images were dropped.
type CacheClearResult struct {
	Evicted int `json:"evicted"`
}

func (s *Server) handleCacheClear() (interface{}, error) {
	n := s.cache.Len()
	s.cache.Clear()
	s.log.Info("image cache cleared (%d images)", n)
	return &CacheClearResult{Evicted: n}, nil
}

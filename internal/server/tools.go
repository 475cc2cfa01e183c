package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// roiSchema describes an optional region of interest argument.
var roiSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x":      map[string]interface{}{"type": "integer"},
		"y":      map[string]interface{}{"type": "integer"},
		"width":  map[string]interface{}{"type": "integer"},
		"height": map[string]interface{}{"type": "integer"},
	},
	"required":    []string{"x", "y", "width", "height"},
	"description": "Optional region of interest. Keypoints outside it are discarded.",
}

// strategyProperties are shared by every tool that builds a pipeline.
func strategyProperties() map[string]interface{} {
	return map[string]interface{}{
		"detector": map[string]interface{}{
			"type":        "string",
			"description": "Detector name (see tracker_strategies). Default SHITOMASI",
			"default":     "SHITOMASI",
		},
		"descriptor": map[string]interface{}{
			"type":        "string",
			"description": "Descriptor name (see tracker_strategies). Default BRIEF",
			"default":     "BRIEF",
		},
		"metric": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"binary", "float"},
			"description": "Distance family. Derived from the descriptor when omitted",
		},
		"selector": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"nn", "knn-ratio"},
			"description": "Match selection. Default knn-ratio",
			"default":     "knn-ratio",
		},
		"ratio": map[string]interface{}{
			"type":        "number",
			"description": "Distance ratio threshold for knn-ratio (default 0.8)",
			"default":     0.8,
		},
		"roi": roiSchema,
		"keypoint_cap": map[string]interface{}{
			"type":        "integer",
			"description": "Keep only the N strongest keypoints (0 = no cap)",
			"default":     0,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	matchProps := strategyProperties()
	matchProps["path_a"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the earlier frame",
	}
	matchProps["path_b"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the later frame",
	}
	matchProps["render"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Return a side-by-side PNG of the matches as base64",
		"default":     false,
	}
	matchProps["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Scale factor for the rendering. Default 1.0",
		"default":     1.0,
	}

	seqProps := strategyProperties()
	seqProps["paths"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Absolute paths of the frames in temporal order",
	}
	seqProps["buffer"] = map[string]interface{}{
		"type":        "integer",
		"description": "Frame buffer capacity (default 2; 1 disables matching)",
		"default":     2,
	}

	return []Tool{
		{
			Name:        "tracker_strategies",
			Description: "List the available keypoint detectors, descriptor extractors, distance metrics and match selectors.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "tracker_detect",
			Description: "Detect keypoints in one image, optionally restricted to a region and capped to the strongest N. Returns the keypoints with size statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"detector": map[string]interface{}{
						"type":        "string",
						"description": "Detector name. Default SHITOMASI",
						"default":     "SHITOMASI",
					},
					"roi": roiSchema,
					"keypoint_cap": map[string]interface{}{
						"type":        "integer",
						"description": "Keep only the N strongest keypoints (0 = no cap)",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tracker_match",
			Description: "Detect, describe and match keypoints between two frames. Returns the matches and optionally a rendering.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": matchProps,
				"required":   []string{"path_a", "path_b"},
			},
		},
		{
			Name:        "tracker_sequence",
			Description: "Run the sliding-window tracker over an ordered list of frames and return per-frame reports with a summary row.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": seqProps,
				"required":   []string{"paths"},
			},
		},
		{
			Name:        "tracker_cache_clear",
			Description: "Drop every decoded frame cached by tracker_detect and tracker_match. Returns the number of images evicted.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"tracker_strategies",
		"tracker_detect",
		"tracker_match",
		"tracker_sequence",
		"tracker_cache_clear",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := []struct {
		tool     string
		required []string
	}{
		{"tracker_detect", []string{"path"}},
		{"tracker_match", []string{"path_a", "path_b"}},
		{"tracker_sequence", []string{"paths"}},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool := toolMap[tt.tool]
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("required should be a string slice")
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, name := range tt.required {
				found := false
				for _, r := range required {
					if r == name {
						found = true
					}
				}
				if !found {
					t.Errorf("%s should be required", name)
				}
				if _, ok := props[name]; !ok {
					t.Errorf("required %s has no property schema", name)
				}
			}
		})
	}
}

func TestToolDefinitions_SharedPropertiesNotAliased(t *testing.T) {
	// match and sequence extend the shared property map independently
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	seqProps := toolMap["tracker_sequence"].InputSchema["properties"].(map[string]interface{})
	if _, ok := seqProps["path_a"]; ok {
		t.Error("tracker_sequence should not carry path_a")
	}
}

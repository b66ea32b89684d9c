package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// One-shot Recognition
		{
			Name:        "shapes_detect",
			Description: "Recognize the shapes in one image file. Returns each shape's pattern (Triangle, Square, Rectangle, Pentagon, Hexagon, Circle), color, confidence, center and bounding box, and optionally the annotated image as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the annotated image as base64 PNG. Default false",
						"default":     false,
					},
					"log": map[string]interface{}{
						"type":        "boolean",
						"description": "Append the recognized shapes to the CSV detection log. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Detection Session
		{
			Name:        "detection_start",
			Description: "Start a detection session in the background. In image mode the folder's images are processed in name order; in camera mode live frames are read until stopped. Every recognized shape is appended to the CSV log.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"image", "camera"},
						"description": "Frame source. Default from config (image)",
					},
					"folder": map[string]interface{}{
						"type":        "string",
						"description": "Image folder for image mode. Defaults to the last folder used; remembered for next time",
					},
					"loop": map[string]interface{}{
						"type":        "boolean",
						"description": "Restart from the first image after the last one instead of completing",
					},
					"device": map[string]interface{}{
						"type":        "integer",
						"description": "Camera device index for camera mode. Default from config (0)",
					},
				},
			},
		},
		{
			Name:        "detection_stop",
			Description: "Stop the running detection session. Waits up to 2 seconds for the current frame to finish.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "detection_status",
			Description: "Report the session state (idle, running, stopping), the status line, the run id and frame and shape counts.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Viewport
		{
			Name:        "frame_view",
			Description: "Show a processed frame from the session history as base64 PNG. Navigate with prev and next, or jump to an index.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"current", "prev", "next", "index"},
						"description": "Navigation step. Default current",
						"default":     "current",
					},
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "History position (0-based) for the index action",
					},
				},
			},
		},

		// Log
		{
			Name:        "log_read",
			Description: "Read rows of the CSV detection log (Timestamp, Pattern, Color, Frame, Confidence).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Return only the last N rows. Default 0 (all)",
					},
				},
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

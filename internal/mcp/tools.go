package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func labelIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Label id as listed by dental_state",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Workflow
		{
			Name:        "dental_load_image",
			Description: "Load a dental photograph from disk. The file must be an image under the upload limit (10MB by default); it is scaled to fit the 800x600 canvas. Clears any previous findings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "dental_analyze",
			Description: "Send the loaded image to the prediction service and show every detected finding. Blocks until the service answers or fails.",
			InputSchema: noArgs(),
		},

		// Selection
		{
			Name:        "dental_toggle_label",
			Description: "Show or hide one finding on the canvas. The treatment list follows the visible findings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": labelIDProperty(),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "dental_show_all",
			Description: "Show every finding.",
			InputSchema: noArgs(),
		},
		{
			Name:        "dental_hide_all",
			Description: "Hide every finding.",
			InputSchema: noArgs(),
		},

		// Output
		{
			Name:        "dental_state",
			Description: "Get the current view: workflow phase, status message, loaded file, label list with colours and confidences, and the treatment list.",
			InputSchema: noArgs(),
		},
		{
			Name:        "dental_export_canvas",
			Description: "Return the annotated canvas (image plus visible boxes) as base64-encoded PNG.",
			InputSchema: noArgs(),
		},
		{
			Name:        "dental_report",
			Description: "Summarize the visible findings and their treatments for the loaded image.",
			InputSchema: noArgs(),
		},
		{
			Name:        "dental_crop_label",
			Description: "Crop one finding's box from the image and return it zoomed as base64-encoded PNG. Use this to examine a finding in detail.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": labelIDProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Zoom factor. Default 2.0",
						"default":     2.0,
					},
				},
				"required": []string{"id"},
			},
		},
	}
}

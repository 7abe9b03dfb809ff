package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "dental_load_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidParams marks tool argument errors. They are reported with the
// JSON-RPC invalid params code rather than as tool failures.
var errInvalidParams = errors.New("invalid params")

func invalidParams(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errInvalidParams, fmt.Sprintf(format, args...))
}

// viewResult is returned by tools that change or report the workflow state.
// Its status banner tells whether the step succeeded.
type viewResult struct {
	render.View
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}],
//	  "isError": false
//	}
//
// isError is set when the result is a view whose status banner reports an
// error. Tool execution errors return a JSON-RPC error response with code
// -32000; missing or malformed tool arguments use -32602.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if errors.Is(err, errInvalidParams) {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	isError := false
	if v, ok := result.(viewResult); ok {
		isError = v.Status.Kind == controller.StatusError
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
			"isError": isError,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Workflow
	case "dental_load_image":
		return s.handleLoadImage(args)
	case "dental_analyze":
		return s.handleAnalyze(ctx)

	// Selection
	case "dental_toggle_label":
		return s.handleToggleLabel(args)
	case "dental_show_all":
		return s.view(s.ctl.ShowAll()), nil
	case "dental_hide_all":
		return s.view(s.ctl.HideAll()), nil

	// Output
	case "dental_state":
		return s.view(s.ctl.Snapshot()), nil
	case "dental_export_canvas":
		return s.handleExportCanvas()
	case "dental_report":
		return s.renderer.Report(s.ctl.Snapshot(), time.Now())
	case "dental_crop_label":
		return s.handleCropLabel(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) view(st controller.State) viewResult {
	return viewResult{s.renderer.View(st)}
}

// decodeArgs unmarshals tool arguments; absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidParams("%v", err)
	}
	return nil
}

// === Workflow Handlers ===

type loadImageArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoadImage(args json.RawMessage) (interface{}, error) {
	var a loadImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}

	u, err := imaging.ReadUpload(a.Path)
	if err != nil {
		return nil, err
	}

	// Rejections are reported on the banner of the returned view.
	st, _ := s.ctl.LoadFile(u)
	return s.view(st), nil
}

func (s *Server) handleAnalyze(ctx context.Context) (interface{}, error) {
	st, err := s.ctl.Analyze(ctx)
	if errors.Is(err, controller.ErrSuperseded) {
		return nil, err
	}
	return s.view(st), nil
}

// === Selection Handlers ===

type labelArgs struct {
	ID    *int    `json:"id"`
	Scale float64 `json:"scale"`
}

func (a labelArgs) id() (int, error) {
	if a.ID == nil {
		return 0, invalidParams("id is required")
	}
	return *a.ID, nil
}

func (s *Server) handleToggleLabel(args json.RawMessage) (interface{}, error) {
	var a labelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	id, err := a.id()
	if err != nil {
		return nil, err
	}
	return s.view(s.ctl.Toggle(id)), nil
}

// === Output Handlers ===

type canvasResult struct {
	FileName    string `json:"file_name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleExportCanvas() (interface{}, error) {
	data, uploadID := s.surface.PNG()
	if data == nil {
		return nil, render.ErrNoPicture
	}
	w, h := s.ctl.Snapshot().DisplaySize()
	return &canvasResult{
		FileName:    render.DownloadName(uploadID),
		Width:       w,
		Height:      h,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

func (s *Server) handleCropLabel(args json.RawMessage) (interface{}, error) {
	var a labelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	id, err := a.id()
	if err != nil {
		return nil, err
	}
	if a.Scale < 0 {
		return nil, invalidParams("scale must be positive, got %g", a.Scale)
	}
	return s.renderer.CropLabel(s.ctl.Snapshot(), id, a.Scale)
}

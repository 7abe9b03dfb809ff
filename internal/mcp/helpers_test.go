package mcp

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/logger"
	"github.com/ironsheep/dental-detect/internal/predict"
	"github.com/ironsheep/dental-detect/internal/render"
)

const predictionJSON = `{"labels": [
	{"id": 1, "classId": 0, "name": "Caries", "confidence": 0.9,
	 "bbox": {"x": 0.25, "y": 0.5, "width": 0.2, "height": 0.4},
	 "treatment": {"title": "Filling", "description": "Restore"}},
	{"id": 2, "classId": 3, "name": "Implant", "confidence": 0.75,
	 "bbox": {"x": 0.75, "y": 0.5, "width": 0.2, "height": 0.4},
	 "treatment": {"title": "Implant check", "description": "Inspect"}}
]}`

// newTestServer returns a server backed by a fake prediction service that
// answers with status and body.
func newTestServer(t *testing.T, status int, body string) *Server {
	t.Helper()

	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(svc.Close)

	renderer := render.NewRenderer(nil)
	surface := render.NewSurface(renderer, logger.Discard())
	ctl := controller.New(
		predict.NewClient(svc.URL+"/predict", 5*time.Second),
		controller.WithSink(surface),
	)
	return New(ctl, renderer, surface, logger.Discard(), "1.2.3")
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "xray.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs tools/call and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolText extracts the text content of a successful tool call and decodes
// it into v.
func toolText(t *testing.T, resp *MCPResponse, v interface{}) (isError bool) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Result should be a map, got %T", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
	isError, _ = result["isError"].(bool)
	return isError
}

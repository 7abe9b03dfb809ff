package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/logger"
	"github.com/ironsheep/dental-detect/internal/render"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type predictorFunc func(ctx context.Context, dataURI string) (*detection.Result, error)

func (f predictorFunc) Predict(ctx context.Context, dataURI string) (*detection.Result, error) {
	return f(ctx, dataURI)
}

func twoFindings(context.Context, string) (*detection.Result, error) {
	return &detection.Result{Labels: []detection.Label{
		{ID: 1, Name: "Caries", ClassID: 0, Confidence: 0.9,
			BBox:      detection.BBox{X: 0.25, Y: 0.5, Width: 0.2, Height: 0.4},
			Treatment: detection.Treatment{Title: "Filling", Description: "Restore the tooth"}},
		{ID: 2, Name: "Implant", ClassID: 3, Confidence: 0.6,
			BBox:      detection.BBox{X: 0.75, Y: 0.5, Width: 0.2, Height: 0.4},
			Treatment: detection.Treatment{Title: "Implant check", Description: "Inspect the fixture"}},
	}}, nil
}

type testEnv struct {
	server *Server
	router *gin.Engine
	hub    *Hub
	ctl    *controller.Controller
}

func newTestEnv(t *testing.T, p controller.Predictor, intake imaging.IntakeOptions) *testEnv {
	t.Helper()
	log := logger.Discard()
	renderer := render.NewRenderer(imaging.DefaultPalette)
	surface := render.NewSurface(renderer, log)
	hub := NewHub(renderer, log)
	ctl := controller.New(p,
		controller.WithSink(surface),
		controller.WithSink(hub),
		controller.WithIntakeOptions(intake),
		controller.WithLogger(log),
		controller.WithIDGenerator(func() string { return "upload-1" }),
	)
	s := New(ctl, renderer, surface, hub, Options{Version: "test"}, log)
	return &testEnv{server: s, router: s.SetupRouter(), hub: hub, ctl: ctl}
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds an upload form. An empty field name produces a form
// without a file.
func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, name string, data []byte) render.View {
	t.Helper()
	body, ct := multipartBody(t, "file", name, data)
	w := e.do(t, http.MethodPost, "/api/upload", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeView(t, w)
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) render.View {
	t.Helper()
	var v render.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	w := e.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "test", got["version"])
	assert.Equal(t, "idle", got["phase"])
}

func TestState_Idle(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	v := decodeView(t, e.do(t, http.MethodGet, "/api/state", nil, ""))
	assert.Equal(t, controller.PhaseIdle, v.Phase)
	assert.Nil(t, v.File)
	assert.Empty(t, v.Labels)
}

func TestUpload(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	v := e.upload(t, "xray.png", pngData(t, 1600, 600))

	assert.Equal(t, controller.PhaseFileLoaded, v.Phase)
	assert.Equal(t, "File selected successfully", v.Status.Message)
	require.NotNil(t, v.File)
	assert.Equal(t, "upload-1", v.File.UploadID)
	assert.Equal(t, "image/png", v.File.MediaType)
	assert.Equal(t, 800, v.File.DisplayWidth)
	assert.Equal(t, 300, v.File.DisplayHeight)
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		data    []byte
		message string
	}{
		{"no file", "", nil, "No file selected"},
		{"not an image", "file", []byte("just some text, not pixels"), "File is not an image"},
		{"too large", "file", make([]byte, 1<<20+1), "File size too large. Please select an image under 1MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{MaxBytes: 1 << 20})
			e.upload(t, "first.png", pngData(t, 10, 10))

			body, ct := multipartBody(t, tt.field, "bad.bin", tt.data)
			w := e.do(t, http.MethodPost, "/api/upload", body, ct)
			require.Equal(t, http.StatusOK, w.Code)

			v := decodeView(t, w)
			assert.Equal(t, tt.message, v.Status.Message)
			assert.Equal(t, controller.StatusError, v.Status.Kind)
			// The previous picture stays loaded.
			require.NotNil(t, v.File)
			assert.Equal(t, "first.png", v.File.Name)
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	w := e.do(t, http.MethodPost, "/api/upload", bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeAndSelection(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	e.upload(t, "xray.png", pngData(t, 200, 100))

	v := decodeView(t, e.do(t, http.MethodPost, "/api/analyze", nil, ""))
	assert.Equal(t, controller.PhaseResultsShown, v.Phase)
	assert.False(t, v.Loading)
	assert.Equal(t, "Found 2 findings", v.Status.Message)
	require.Len(t, v.Labels, 2)
	assert.Len(t, v.Treatments, 2)

	v = decodeView(t, e.do(t, http.MethodPost, "/api/labels/1/toggle", nil, ""))
	assert.False(t, v.Labels[0].Selected)
	assert.True(t, v.Labels[1].Selected)
	require.Len(t, v.Treatments, 1)
	assert.Equal(t, "Implant check", v.Treatments[0].Title)

	v = decodeView(t, e.do(t, http.MethodPost, "/api/labels/hide-all", nil, ""))
	assert.Empty(t, v.Treatments)

	v = decodeView(t, e.do(t, http.MethodPost, "/api/labels/show-all", nil, ""))
	assert.True(t, v.Labels[0].Selected && v.Labels[1].Selected)

	v = decodeView(t, e.do(t, http.MethodPost, "/api/labels/42/toggle", nil, ""))
	assert.Equal(t, "Unknown label 42", v.Status.Message)

	w := e.do(t, http.MethodPost, "/api/labels/abc/toggle", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_WithoutImage(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	v := decodeView(t, e.do(t, http.MethodPost, "/api/analyze", nil, ""))
	assert.Equal(t, "Please select an image first", v.Status.Message)
	assert.Equal(t, controller.PhaseIdle, v.Phase)
}

func TestAnalyze_Failure(t *testing.T) {
	failing := predictorFunc(func(context.Context, string) (*detection.Result, error) {
		return nil, errors.New("service said no")
	})
	e := newTestEnv(t, failing, imaging.IntakeOptions{})
	e.upload(t, "xray.png", pngData(t, 20, 20))

	w := e.do(t, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	v := decodeView(t, w)
	assert.Equal(t, "Prediction failed", v.Status.Message)
	assert.Equal(t, controller.PhaseFileLoaded, v.Phase)
	assert.False(t, v.Loading)
}

func TestAnalyze_Superseded(t *testing.T) {
	var e *testEnv
	slow := predictorFunc(func(ctx context.Context, uri string) (*detection.Result, error) {
		// A new file arrives while the prediction is in flight.
		e.upload(t, "second.png", pngData(t, 30, 30))
		return twoFindings(ctx, uri)
	})
	e = newTestEnv(t, slow, imaging.IntakeOptions{})
	e.upload(t, "first.png", pngData(t, 20, 20))

	w := e.do(t, http.MethodPost, "/api/analyze", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	v := decodeView(t, e.do(t, http.MethodGet, "/api/state", nil, ""))
	assert.Equal(t, controller.PhaseFileLoaded, v.Phase)
	assert.Equal(t, "second.png", v.File.Name)
	assert.Empty(t, v.Labels)
}

func TestCanvas(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	w := e.do(t, http.MethodGet, "/api/canvas.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	e.upload(t, "xray.png", pngData(t, 200, 100))
	e.do(t, http.MethodPost, "/api/analyze", nil, "")

	w = e.do(t, http.MethodGet, "/api/canvas.png?download=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="dental-analysis-upload-1.png"`, w.Header().Get("Content-Disposition"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

	w = e.do(t, http.MethodGet, "/api/canvas.png", nil, "")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestCrop(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	w := e.do(t, http.MethodGet, "/api/labels/1/crop.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	e.upload(t, "xray.png", pngData(t, 200, 100))
	e.do(t, http.MethodPost, "/api/analyze", nil, "")

	w = e.do(t, http.MethodGet, "/api/labels/1/crop.png?scale=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	// 20% x 40% of 200x100
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	w = e.do(t, http.MethodGet, "/api/labels/1/crop.png", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err = png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/labels/9/crop.png", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/labels/1/crop.png?scale=-2", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/labels/x/crop.png", nil, "").Code)
}

func TestReport(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/report", nil, "").Code)

	e.upload(t, "xray.png", pngData(t, 200, 100))
	e.do(t, http.MethodPost, "/api/analyze", nil, "")
	e.do(t, http.MethodPost, "/api/labels/2/toggle", nil, "")

	w := e.do(t, http.MethodGet, "/api/report", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rep render.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "xray.png", rep.FileName)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "Caries", rep.Findings[0].Name)
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "http://viewer.example")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	e.server.opts.AllowOrigins = []string{"http://clinic.example"}
	router := e.server.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "http://clinic.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebsocket_ReceivesViews(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.hub.Run(ctx)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return e.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	e.upload(t, "xray.png", pngData(t, 20, 20))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ViewMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "view", msg.Type)
	assert.Equal(t, controller.PhaseFileLoaded, msg.View.Phase)
	assert.Contains(t, msg.Effects, "redraw-canvas")
}

func TestWebsocket_LateClientGetsLatestView(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.hub.Run(ctx)

	e.upload(t, "xray.png", pngData(t, 20, 20))
	require.NotNil(t, e.hub.Latest())

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ViewMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.View.File)
	assert.Equal(t, "xray.png", msg.View.File.Name)
}

func TestHub_StopsWithContext(t *testing.T) {
	hub := NewHub(render.NewRenderer(nil), logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(render.NewRenderer(nil), logger.Discard())

	// Nothing drains the queue; only the newest message is kept.
	for i := 0; i < 100; i++ {
		hub.Broadcast([]byte(strconv.Itoa(i)))
	}
	require.Len(t, hub.broadcast, 1)
	assert.Equal(t, "99", string(<-hub.broadcast))
}

func TestHub_StalledQueueDeliversFinalView(t *testing.T) {
	hub := NewHub(render.NewRenderer(nil), logger.Discard())
	effects := []controller.Effect{{Kind: controller.SetLoading}}

	for i := 0; i < 20; i++ {
		hub.Apply(controller.State{Loading: true, Token: uint64(i)}, effects)
	}
	hub.Apply(controller.State{Loading: false, Token: 99}, effects)

	require.Len(t, hub.broadcast, 1)
	var msg ViewMessage
	require.NoError(t, json.Unmarshal(<-hub.broadcast, &msg))
	assert.Equal(t, uint64(99), msg.View.Token)
	assert.False(t, msg.View.Loading)
}

func TestHub_ApplyKeepsLatest(t *testing.T) {
	hub := NewHub(render.NewRenderer(nil), logger.Discard())
	assert.Nil(t, hub.Latest())

	hub.Apply(controller.State{Status: controller.Status{Message: "hello", Kind: controller.StatusInfo}},
		[]controller.Effect{{Kind: controller.ShowStatus}})

	var msg ViewMessage
	require.NoError(t, json.Unmarshal(hub.Latest(), &msg))
	assert.Equal(t, "hello", msg.View.Status.Message)
	assert.Equal(t, []string{"show-status"}, msg.Effects)
}

func TestStaticIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>viewer</html>"), 0o644))

	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	e.server.opts.StaticDir = dir
	router := e.server.SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viewer")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viewer")

	// The file server canonicalizes index.html to its directory.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/index.html", nil))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "./", w.Header().Get("Location"))
}

func TestListenAndServe_Shutdown(t *testing.T) {
	e := newTestEnv(t, predictorFunc(twoFindings), imaging.IntakeOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- e.server.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

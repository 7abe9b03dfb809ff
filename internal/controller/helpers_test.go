package controller

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 80, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T, name string, w, h int) *imaging.Upload {
	t.Helper()
	return &imaging.Upload{Name: name, ContentType: "image/png", Data: pngBytes(t, w, h)}
}

func testPicture(t *testing.T) *imaging.Picture {
	t.Helper()
	pic, err := imaging.Intake(pngUpload(t, "xray.png", 40, 30), imaging.IntakeOptions{})
	require.NoError(t, err)
	return pic
}

// sampleResult has two labels sharing a treatment title.
func sampleResult() *detection.Result {
	return &detection.Result{Labels: []detection.Label{
		{ID: 1, Name: "Caries", ClassID: 0, Confidence: 0.91,
			BBox:      detection.BBox{X: 0.3, Y: 0.3, Width: 0.2, Height: 0.2},
			Treatment: detection.Treatment{Title: "Filling", Description: "first"}},
		{ID: 2, Name: "Crown", ClassID: 1, Confidence: 0.8,
			BBox:      detection.BBox{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2},
			Treatment: detection.Treatment{Title: "Crown check", Description: "inspect"}},
		{ID: 3, Name: "Caries", ClassID: 0, Confidence: 0.55,
			BBox:      detection.BBox{X: 0.7, Y: 0.2, Width: 0.1, Height: 0.1},
			Treatment: detection.Treatment{Title: "Filling", Description: "second"}},
	}}
}

// withResult returns a state showing sampleResult with everything selected.
func withResult(t *testing.T) State {
	t.Helper()
	s, _ := Reduce(State{}, FileLoaded{Picture: testPicture(t), UploadID: "u1"})
	s, _ = Reduce(s, AnalyzeRequested{})
	s, _ = Reduce(s, PredictionSucceeded{Token: s.Token, Result: sampleResult()})
	return s
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

type fakePredictor struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, dataURI string) (*detection.Result, error)
	calls   int
	lastURI string
}

func (f *fakePredictor) Predict(ctx context.Context, dataURI string) (*detection.Result, error) {
	f.mu.Lock()
	f.calls++
	f.lastURI = dataURI
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, dataURI)
}

func returning(r *detection.Result, err error) *fakePredictor {
	return &fakePredictor{fn: func(context.Context, string) (*detection.Result, error) {
		return r, err
	}}
}

type recordingSink struct {
	mu      sync.Mutex
	applied [][]Effect
	last    State
}

func (r *recordingSink) Apply(s State, effects []Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, effects)
	r.last = s
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

package render

import (
	"sync"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/logger"
)

// Surface is the canvas. It redraws from scratch on every RedrawCanvas or
// ClearPanels effect and keeps the latest frame encoded as PNG.
type Surface struct {
	renderer *Renderer
	log      *logger.Logger

	mu       sync.RWMutex
	png      []byte
	uploadID string
	frame    uint64
}

// NewSurface creates an empty canvas.
func NewSurface(r *Renderer, log *logger.Logger) *Surface {
	return &Surface{renderer: r, log: log}
}

// Apply implements controller.Sink.
func (s *Surface) Apply(st controller.State, effects []controller.Effect) {
	if !controller.Has(effects, controller.RedrawCanvas) && !controller.Has(effects, controller.ClearPanels) {
		return
	}

	var data []byte
	if canvas := s.renderer.Canvas(st); canvas != nil {
		var err error
		data, err = imaging.EncodePNG(canvas)
		if err != nil {
			s.log.Error("Failed to encode canvas: %v", err)
			return
		}
	}

	s.mu.Lock()
	s.png = data
	s.uploadID = st.UploadID
	s.frame++
	frame := s.frame
	s.mu.Unlock()

	s.log.Debug("Canvas frame %d: %d boxes, %d bytes", frame, len(st.SelectedLabels()), len(data))
}

// PNG returns the latest frame and the upload it belongs to. data is nil
// before a picture is loaded.
func (s *Surface) PNG() (data []byte, uploadID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.png, s.uploadID
}

// Frame counts redraws.
func (s *Surface) Frame() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// DownloadName is the attachment name for a canvas download.
func DownloadName(uploadID string) string {
	if uploadID == "" {
		return "dental-analysis.png"
	}
	return "dental-analysis-" + uploadID + ".png"
}

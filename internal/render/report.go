package render

import (
	"time"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
)

// Finding is one selected label in a report.
type Finding struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Confidence string  `json:"confidence"`
	Color      string  `json:"color"`
	Box        Box     `json:"box"`
	Score      float64 `json:"score"`
}

// Report is the exported analysis summary.
type Report struct {
	FileName     string                `json:"fileName"`
	UploadID     string                `json:"uploadId"`
	GeneratedAt  time.Time             `json:"generatedAt"`
	CanvasWidth  int                   `json:"canvasWidth"`
	CanvasHeight int                   `json:"canvasHeight"`
	Findings     []Finding             `json:"findings"`
	Treatments   []detection.Treatment `json:"treatments"`
}

// Report summarizes the selected findings of s. It needs a picture; a
// picture that has not been analyzed yet has no findings.
func (r *Renderer) Report(s controller.State, now time.Time) (*Report, error) {
	if s.Picture == nil {
		return nil, ErrNoPicture
	}

	w, h := s.Picture.DisplaySize()
	rep := &Report{
		FileName:     s.Picture.Name,
		UploadID:     s.UploadID,
		GeneratedAt:  now.UTC(),
		CanvasWidth:  w,
		CanvasHeight: h,
		Findings:     []Finding{},
		Treatments:   []detection.Treatment{},
	}

	for _, l := range s.SelectedLabels() {
		rep.Findings = append(rep.Findings, Finding{
			ID:         l.ID,
			Name:       l.Name,
			Confidence: l.ConfidencePercent(),
			Color:      imaging.HexColor(r.Palette.ForClass(l.ClassID)),
			Box:        boxOf(l.BBox.Rect(w, h)),
			Score:      l.Confidence,
		})
	}
	if t := s.Treatments(); len(t) > 0 {
		rep.Treatments = t
	}
	return rep, nil
}

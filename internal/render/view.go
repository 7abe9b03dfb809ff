// Package render turns controller state into what users see: the JSON view
// of the panels, the annotated canvas, the exported report and label crops.
package render

import (
	"errors"
	"image"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
)

var (
	// ErrNoPicture is returned when an operation needs a loaded picture.
	ErrNoPicture = errors.New("no image loaded")

	// ErrUnknownLabel is returned for a label id not in the current result.
	ErrUnknownLabel = errors.New("unknown label")
)

// Renderer maps labels to colours and canvas geometry.
type Renderer struct {
	Palette imaging.Palette
}

// NewRenderer returns a Renderer using palette, or the default palette when
// palette is empty.
func NewRenderer(palette imaging.Palette) *Renderer {
	if len(palette) == 0 {
		palette = imaging.DefaultPalette
	}
	return &Renderer{Palette: palette}
}

// Box is a pixel rectangle on the canvas.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func boxOf(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// LabelView is one entry of the label list.
type LabelView struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	ClassID        int     `json:"classId"`
	Confidence     float64 `json:"confidence"`
	ConfidenceText string  `json:"confidenceText"`
	Color          string  `json:"color"`
	Selected       bool    `json:"selected"`
	Box            Box     `json:"box"`
}

// FileView describes the loaded picture.
type FileView struct {
	UploadID      string `json:"uploadId"`
	Name          string `json:"name"`
	MediaType     string `json:"mediaType"`
	Size          int64  `json:"size"`
	NaturalWidth  int    `json:"naturalWidth"`
	NaturalHeight int    `json:"naturalHeight"`
	DisplayWidth  int    `json:"displayWidth"`
	DisplayHeight int    `json:"displayHeight"`
}

// View is the complete panel state sent to clients.
type View struct {
	Phase      controller.Phase      `json:"phase"`
	Loading    bool                  `json:"loading"`
	Status     controller.Status     `json:"status"`
	File       *FileView             `json:"file,omitempty"`
	Labels     []LabelView           `json:"labels"`
	Treatments []detection.Treatment `json:"treatments"`
	Token      uint64                `json:"token"`
}

// View builds the client view of s. Labels are listed in result order;
// treatments follow the selection.
func (r *Renderer) View(s controller.State) View {
	v := View{
		Phase:      s.Phase,
		Loading:    s.Loading,
		Status:     s.Status,
		Labels:     []LabelView{},
		Treatments: s.Treatments(),
		Token:      s.Token,
	}
	if v.Treatments == nil {
		v.Treatments = []detection.Treatment{}
	}

	if s.Picture == nil {
		return v
	}

	w, h := s.Picture.DisplaySize()
	v.File = &FileView{
		UploadID:      s.UploadID,
		Name:          s.Picture.Name,
		MediaType:     s.Picture.MediaType,
		Size:          s.Picture.Size,
		NaturalWidth:  s.Picture.NaturalWidth,
		NaturalHeight: s.Picture.NaturalHeight,
		DisplayWidth:  w,
		DisplayHeight: h,
	}

	if s.Result == nil {
		return v
	}
	for _, l := range s.Result.Labels {
		v.Labels = append(v.Labels, LabelView{
			ID:             l.ID,
			Name:           l.Name,
			ClassID:        l.ClassID,
			Confidence:     l.Confidence,
			ConfidenceText: l.ConfidencePercent(),
			Color:          imaging.HexColor(r.Palette.ForClass(l.ClassID)),
			Selected:       s.Selection.Has(l.ID),
			Box:            boxOf(l.BBox.Rect(w, h)),
		})
	}
	return v
}

// Overlays returns the boxes to draw for the selected labels of s.
func (r *Renderer) Overlays(s controller.State) []imaging.Overlay {
	if s.Picture == nil {
		return nil
	}
	w, h := s.Picture.DisplaySize()

	selected := s.SelectedLabels()
	out := make([]imaging.Overlay, 0, len(selected))
	for _, l := range selected {
		out = append(out, imaging.Overlay{
			Rect:  l.BBox.Rect(w, h),
			Text:  l.Name,
			Color: r.Palette.ForClass(l.ClassID),
		})
	}
	return out
}

// Canvas draws the picture with every selected box. It returns nil without
// a picture.
func (r *Renderer) Canvas(s controller.State) *image.RGBA {
	if s.Picture == nil {
		return nil
	}
	return imaging.DrawOverlays(s.Picture.Display, r.Overlays(s))
}

// CropLabel cuts label id's box out of the display image (without overlays)
// and zooms it by scale. A scale <= 0 means 2.
func (r *Renderer) CropLabel(s controller.State, id int, scale float64) (*imaging.CropResult, error) {
	if s.Picture == nil {
		return nil, ErrNoPicture
	}
	l, ok := s.Result.Find(id)
	if !ok {
		return nil, ErrUnknownLabel
	}
	if scale <= 0 {
		scale = 2
	}
	w, h := s.Picture.DisplaySize()
	return imaging.CropBox(s.Picture.Display, l.BBox.Rect(w, h), scale)
}

package detection

import (
	"image"
	"math"
	"strconv"
)

// BBox is a normalized, center-based bounding box.
//
// All values are fractions of the image dimensions in the range 0.0 to 1.0.
type BBox struct {
	X      float64 `json:"x"`      // Center X (0 = left edge, 1 = right edge)
	Y      float64 `json:"y"`      // Center Y (0 = top edge, 1 = bottom edge)
	Width  float64 `json:"width"`  // Box width as a fraction of image width
	Height float64 `json:"height"` // Box height as a fraction of image height
}

// Rect converts the box to a pixel rectangle on a surface of the given size.
//
// The top-left corner is (X - Width/2, Y - Height/2) scaled by the surface
// dimensions. Coordinates are rounded to the nearest pixel and are not clamped,
// so a box that extends past the image edge yields a rectangle that does too.
func (b BBox) Rect(width, height int) image.Rectangle {
	w := float64(width)
	h := float64(height)

	x0 := (b.X - b.Width/2) * w
	y0 := (b.Y - b.Height/2) * h
	x1 := x0 + b.Width*w
	y1 := y0 + b.Height*h

	return image.Rect(round(x0), round(y0), round(x1), round(y1))
}

func round(v float64) int {
	return int(math.Round(v))
}

// Treatment is the title and description shown for a detected class.
type Treatment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Label is one detected finding.
type Label struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	ClassID    int       `json:"classId"`
	Confidence float64   `json:"confidence"`
	BBox       BBox      `json:"bbox"`
	Treatment  Treatment `json:"treatment"`
}

// ConfidencePercent formats the confidence with one decimal, e.g. "87.5%".
func (l Label) ConfidencePercent() string {
	return strconv.FormatFloat(l.Confidence*100, 'f', 1, 64) + "%"
}

// Result is the prediction service response.
//
// Classes maps class ids (as strings, the way the service encodes them) to
// class names. It is optional and only used to fill in missing label names.
type Result struct {
	Labels  []Label           `json:"labels"`
	Classes map[string]string `json:"classes,omitempty"`
}

// Find returns the label with the given id.
func (r *Result) Find(id int) (Label, bool) {
	if r == nil {
		return Label{}, false
	}
	for _, l := range r.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}

// IDs returns the label ids in result order.
func (r *Result) IDs() []int {
	if r == nil {
		return nil
	}
	ids := make([]int, 0, len(r.Labels))
	for _, l := range r.Labels {
		ids = append(ids, l.ID)
	}
	return ids
}

// Normalize fills gaps left by the prediction service and returns a new
// Result; the receiver is not modified.
//
// For each label:
//   - an empty Name is taken from Classes, then from the catalog
//   - an empty Treatment title is taken from the catalog
//   - Confidence is clamped to 0.0-1.0
func (r *Result) Normalize(catalog Catalog) *Result {
	if r == nil {
		return nil
	}

	out := &Result{
		Labels:  make([]Label, len(r.Labels)),
		Classes: r.Classes,
	}

	for i, l := range r.Labels {
		if l.Name == "" {
			if name, ok := r.Classes[strconv.Itoa(l.ClassID)]; ok {
				l.Name = name
			} else if entry, ok := catalog[l.ClassID]; ok {
				l.Name = entry.ClassName
			}
		}
		if l.Treatment.Title == "" {
			if entry, ok := catalog[l.ClassID]; ok {
				l.Treatment = entry.Treatment
			}
		}
		l.Confidence = math.Max(0, math.Min(1, l.Confidence))
		out.Labels[i] = l
	}

	return out
}

package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Overlay geometry.
const (
	StrokeWidth  = 3
	LabelPadding = 2
)

// LabelTextColor is the colour of tag text.
var LabelTextColor = color.RGBA{0, 0, 0, 255}

// Overlay is one annotated box to draw on the canvas.
type Overlay struct {
	// Rect is the box in canvas pixel coordinates.
	Rect image.Rectangle

	// Text is drawn in a tag above the box (or just inside its top edge
	// when the box is too close to the top of the canvas).
	Text string

	// Color is used for both the outline and the tag background.
	Color color.RGBA
}

// DrawOverlays returns a copy of base with every overlay drawn on it.
//
// Overlays are drawn in order, so later overlays cover earlier ones where
// they intersect. Drawing is clipped to the canvas; boxes partly outside the
// image are still drawn where visible. The base image is not modified.
func DrawOverlays(base image.Image, overlays []Overlay) *image.RGBA {
	canvas := clone.AsRGBA(base)
	if len(overlays) == 0 {
		return canvas
	}

	face := newLabelFace()
	defer face.Close()

	for _, o := range overlays {
		strokeRect(canvas, o.Rect, o.Color, StrokeWidth)
		if o.Text != "" {
			drawTag(canvas, face, o)
		}
	}

	return canvas
}

// TagRect returns the background rectangle of the tag for a box whose label
// text is textWidth pixels wide.
//
// The tag sits above the box when there is room for it, otherwise it is
// placed just inside the box's top edge.
func TagRect(box image.Rectangle, textWidth int) image.Rectangle {
	x := box.Min.X
	var y int
	if box.Min.Y > LabelFontSize+LabelPadding*2 {
		y = box.Min.Y - LabelFontSize - LabelPadding*2
	} else {
		y = box.Min.Y + LabelPadding
	}
	return image.Rect(x, y, x+textWidth+LabelPadding*2, y+LabelFontSize+LabelPadding*2)
}

// strokeRect draws a rectangle outline of the given width centered on r's
// edges.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color, width int) {
	if r.Empty() || width <= 0 {
		return
	}
	src := image.NewUniform(c)
	outer := r.Inset(-(width / 2))

	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+width), // top
		image.Rect(outer.Min.X, outer.Max.Y-width, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+width, outer.Max.Y), // left
		image.Rect(outer.Max.X-width, outer.Min.Y, outer.Max.X, outer.Max.Y), // right
	}
	for _, b := range bands {
		draw.Draw(dst, b, src, image.Point{}, draw.Src)
	}
}

func drawTag(dst draw.Image, face font.Face, o Overlay) {
	textWidth := font.MeasureString(face, o.Text).Ceil()
	bg := TagRect(o.Rect, textWidth)

	draw.Draw(dst, bg, image.NewUniform(o.Color), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(LabelTextColor),
		Face: face,
		Dot:  fixed.P(bg.Min.X+LabelPadding, bg.Min.Y+LabelFontSize+LabelPadding/2),
	}
	d.DrawString(o.Text)
}

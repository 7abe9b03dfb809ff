package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	if len(DefaultPalette) != 15 {
		t.Fatalf("palette length: got %d, want 15", len(DefaultPalette))
	}

	first := DefaultPalette[0]
	if first != (color.RGBA{0xFF, 0x6B, 0x6B, 0xFF}) {
		t.Errorf("first colour: got %v", first)
	}
}

func TestPalette_ForClass(t *testing.T) {
	p := DefaultPalette

	tests := []struct {
		classID int
		want    int
	}{
		{0, 0},
		{7, 7},
		{14, 14},
		{15, 0},
		{31, 1},
		{-1, 14},
	}

	for _, tt := range tests {
		if got := p.ForClass(tt.classID); got != p[tt.want] {
			t.Errorf("ForClass(%d): got %v, want palette[%d] %v", tt.classID, got, tt.want, p[tt.want])
		}
	}
}

func TestParsePalette_Invalid(t *testing.T) {
	if _, err := ParsePalette(); err == nil {
		t.Error("empty palette should fail")
	}
	if _, err := ParsePalette("#FF0000", "red"); err == nil {
		t.Error("non-hex colour should fail")
	}
}

func TestHexColor(t *testing.T) {
	if got := HexColor(color.RGBA{0x45, 0xB7, 0xD1, 0xFF}); got != "#45B7D1" {
		t.Errorf("HexColor: got %s, want #45B7D1", got)
	}
	if got := HexColor(DefaultPalette.ForClass(4)); got != "#FFEAA7" {
		t.Errorf("HexColor: got %s, want #FFEAA7", got)
	}
}

func TestTagRect_AboveBox(t *testing.T) {
	box := image.Rect(100, 100, 200, 200)

	got := TagRect(box, 40)
	want := image.Rect(100, 100-LabelFontSize-2*LabelPadding, 100+40+2*LabelPadding, 100)
	if got != want {
		t.Errorf("TagRect: got %v, want %v", got, want)
	}
}

func TestTagRect_InsideBoxNearTop(t *testing.T) {
	box := image.Rect(10, 5, 60, 80)

	got := TagRect(box, 30)
	want := image.Rect(10, 5+LabelPadding, 10+30+2*LabelPadding, 5+LabelPadding+LabelFontSize+2*LabelPadding)
	if got != want {
		t.Errorf("TagRect: got %v, want %v", got, want)
	}
}

func TestDrawOverlays_NoOverlaysCopiesBase(t *testing.T) {
	base := createPatternImage(50, 50)

	out := DrawOverlays(base, nil)
	if out == base {
		t.Fatal("DrawOverlays must return a copy")
	}
	if out.Bounds() != base.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), base.Bounds())
	}
	for _, p := range []image.Point{{5, 5}, {45, 5}, {5, 45}, {45, 45}} {
		if out.At(p.X, p.Y) != base.At(p.X, p.Y) {
			t.Errorf("pixel %v changed", p)
		}
	}
}

func TestDrawOverlays_StrokesBox(t *testing.T) {
	gray := color.RGBA{128, 128, 128, 255}
	base := createInMemoryImage(200, 200, gray)
	red := color.RGBA{255, 0, 0, 255}

	out := DrawOverlays(base, []Overlay{{Rect: image.Rect(50, 60, 150, 160), Color: red}})

	onEdge := []image.Point{
		{100, 60},  // top edge
		{100, 159}, // bottom edge
		{50, 100},  // left edge
		{149, 100}, // right edge
		{49, 59},   // outer half of stroke
		{51, 61},   // inner half of stroke
	}
	for _, p := range onEdge {
		if r, g, b := rgb8(out.At(p.X, p.Y)); r != 255 || g != 0 || b != 0 {
			t.Errorf("stroke at %v: got (%d,%d,%d), want red", p, r, g, b)
		}
	}

	offEdge := []image.Point{
		{100, 100}, // interior
		{10, 10},   // outside
		{53, 63},   // just inside the stroke
	}
	for _, p := range offEdge {
		if r, g, b := rgb8(out.At(p.X, p.Y)); r != 128 || g != 128 || b != 128 {
			t.Errorf("pixel %v: got (%d,%d,%d), want untouched gray", p, r, g, b)
		}
	}

	// The base image is untouched.
	if r, _, _ := rgb8(base.At(100, 60)); r != 128 {
		t.Error("DrawOverlays modified the base image")
	}
}

func TestDrawOverlays_DrawsTagBackground(t *testing.T) {
	base := createInMemoryImage(300, 300, color.RGBA{0, 0, 0, 255})
	teal := color.RGBA{0x4E, 0xCD, 0xC4, 0xFF}
	box := image.Rect(100, 100, 200, 200)

	out := DrawOverlays(base, []Overlay{{Rect: box, Text: "Crown", Color: teal}})

	// Just left of the text start, inside the tag padding.
	tagPixel := image.Pt(box.Min.X+1, box.Min.Y-LabelFontSize-LabelPadding*2+1)
	if r, g, b := rgb8(out.At(tagPixel.X, tagPixel.Y)); r != 0x4E || g != 0xCD || b != 0xC4 {
		t.Errorf("tag background at %v: got (%d,%d,%d), want teal", tagPixel, r, g, b)
	}

	// Some text pixels must differ from the tag colour.
	tag := TagRect(box, 1)
	found := false
	for y := tag.Min.Y; y < tag.Max.Y && !found; y++ {
		for x := tag.Min.X; x < tag.Min.X+40 && !found; x++ {
			r, g, b := rgb8(out.At(x, y))
			if r < 0x40 && g < 0x90 && b < 0x90 {
				found = true
			}
		}
	}
	if !found {
		t.Error("no dark text pixels found inside the tag")
	}
}

func TestDrawOverlays_ClipsToCanvas(t *testing.T) {
	base := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})

	// Must not panic for boxes extending past the canvas.
	out := DrawOverlays(base, []Overlay{
		{Rect: image.Rect(-50, -50, 50, 50), Text: "Edge", Color: DefaultPalette[0]},
		{Rect: image.Rect(80, 80, 500, 500), Text: "Far", Color: DefaultPalette[1]},
	})

	if out.Bounds() != base.Bounds() {
		t.Errorf("bounds: got %v, want %v", out.Bounds(), base.Bounds())
	}
}

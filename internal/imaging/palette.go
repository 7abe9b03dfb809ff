package imaging

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is a fixed list of overlay colours indexed by class id.
type Palette []color.RGBA

// DefaultPalette holds the 15 overlay colours. Class ids wrap around it, so
// class 15 shares the colour of class 0.
var DefaultPalette = MustParsePalette(
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
)

// ParsePalette builds a palette from "#RRGGBB" strings.
func ParsePalette(hexes ...string) (Palette, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("invalid palette colour %q: %w", h, err)
		}
		r, g, b := c.RGB255()
		p = append(p, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return p, nil
}

// MustParsePalette is like ParsePalette but panics on error.
func MustParsePalette(hexes ...string) Palette {
	p, err := ParsePalette(hexes...)
	if err != nil {
		panic(err)
	}
	return p
}

// ForClass returns the colour for a class id. The same class always maps to
// the same colour; negative ids wrap as well.
func (p Palette) ForClass(classID int) color.RGBA {
	n := len(p)
	return p[((classID%n)+n)%n]
}

// HexColor formats a colour as upper-case "#RRGGBB", ignoring alpha.
func HexColor(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return strings.ToUpper(cf.Hex())
}

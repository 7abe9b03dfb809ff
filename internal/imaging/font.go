package imaging

import (
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// LabelFontSize is the label text height in pixels. Tag layout uses it even
// when the fallback bitmap face is active.
const LabelFontSize = 16

var (
	labelFont     *opentype.Font
	labelFontOnce sync.Once
)

// newLabelFace returns a fresh face for label text. Faces are not safe for
// concurrent use, so each drawing pass gets its own.
func newLabelFace() font.Face {
	labelFontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("Warning: label font unavailable, using bitmap font: %v", err)
			return
		}
		labelFont = f
	})

	if labelFont == nil {
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    LabelFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("Warning: failed to create label face: %v", err)
		return basicfont.Face7x13
	}
	return face
}

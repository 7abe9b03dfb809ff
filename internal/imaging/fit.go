package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FitSize returns the display dimensions for an image of the given size.
//
// Images that already fit inside maxWidth x maxHeight keep their size; larger
// images are scaled down by a single ratio so that both sides fit. Rounding is
// to the nearest pixel and never yields a side smaller than 1.
func FitSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))

	return max(w, 1), max(h, 1)
}

// Fit scales img down to fit inside maxWidth x maxHeight.
//
// When no scaling is needed the original image is returned as is.
// Downscaling uses the Lanczos filter.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w, h := FitSize(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)
	if w == bounds.Dx() && h == bounds.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

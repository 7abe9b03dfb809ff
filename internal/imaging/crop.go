package imaging

import (
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResult contains a cropped, optionally scaled region of a picture.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// Image is the cropped region, kept for callers that serve raw PNG.
	Image image.Image `json:"-"`
}

// Crop extracts a rectangular region from an image
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	// Validate coordinates
	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	var cropped image.Image = imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := max(int(float64(cropped.Bounds().Dx())*scale), 1)
		newHeight := max(int(float64(cropped.Bounds().Dy())*scale), 1)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		Image:       cropped,
	}, nil
}

// CropBox crops a detection box out of a picture, zooming by scale.
//
// Unlike Crop, the box is first clipped to the image, since detection boxes
// may extend past the edges. A box that lies entirely outside the image is an
// error.
func CropBox(img image.Image, box image.Rectangle, scale float64) (*CropResult, error) {
	clipped := box.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("box %v does not overlap image bounds %v", box, img.Bounds())
	}
	return Crop(img, clipped.Min.X, clipped.Min.Y, clipped.Max.X, clipped.Max.Y, scale)
}

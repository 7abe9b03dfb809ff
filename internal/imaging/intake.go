package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Default intake limits.
const (
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultMaxWidth       = 800
	DefaultMaxHeight      = 600
)

// Intake errors.
var (
	ErrNoFile   = errors.New("no file selected")
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
	ErrDecode   = errors.New("failed to decode image")
)

// Upload is a file handed to the controller, either from a browser upload
// or read from disk.
type Upload struct {
	// Name is the original file name. Informational only.
	Name string

	// ContentType is the media type declared by the sender. May be empty.
	ContentType string

	// Size is the declared size in bytes. When zero, len(Data) is used.
	Size int64

	// Data holds the raw file contents.
	Data []byte
}

// ReadUpload reads a file from disk into an Upload.
//
// The content type is left empty so that it is sniffed from the contents
// during validation.
func ReadUpload(path string) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &Upload{
		Name: filepath.Base(path),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// ByteSize returns the larger of the declared size and the data length.
func (u *Upload) ByteSize() int64 {
	if n := int64(len(u.Data)); n > u.Size {
		return n
	}
	return u.Size
}

// MediaType returns the upload's media type without parameters.
//
// The declared ContentType wins unless it is empty or
// application/octet-stream, in which case the type is detected from Data.
func (u *Upload) MediaType() string {
	declared := baseMediaType(u.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return baseMediaType(mimetype.Detect(u.Data).String())
}

func baseMediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

// Validate checks an upload against the size limit and media type rules.
//
// Parameters:
//   - u: The upload to check. A nil upload or one without data is "no file".
//   - maxBytes: Largest accepted size in bytes. Values <= 0 use
//     DefaultMaxUploadBytes.
//
// Returns nil when the upload is acceptable, otherwise an error wrapping
// ErrNoFile, ErrTooLarge or ErrNotImage, checked in that order.
func Validate(u *Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if u == nil || len(u.Data) == 0 {
		return ErrNoFile
	}
	if size := u.ByteSize(); size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, maxBytes)
	}
	if mt := u.MediaType(); !strings.HasPrefix(mt, "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, mt)
	}
	return nil
}

// IntakeOptions bounds what Intake accepts and how large the display is.
// Zero values select the package defaults.
type IntakeOptions struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
}

func (o IntakeOptions) withDefaults() IntakeOptions {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxUploadBytes
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	return o
}

// Picture is a validated, decoded upload ready for display.
type Picture struct {
	// Name is the original file name.
	Name string `json:"name"`

	// MediaType is the resolved media type, e.g. "image/jpeg".
	MediaType string `json:"media_type"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// NaturalWidth and NaturalHeight are the decoded image dimensions.
	NaturalWidth  int `json:"natural_width"`
	NaturalHeight int `json:"natural_height"`

	// Data holds the original file bytes, sent to the prediction service.
	Data []byte `json:"-"`

	// Display is the picture scaled to fit the display box.
	Display image.Image `json:"-"`
}

// DisplaySize returns the dimensions of the display image.
func (p *Picture) DisplaySize() (int, int) {
	b := p.Display.Bounds()
	return b.Dx(), b.Dy()
}

// DataURI returns the original file as a data URI.
func (p *Picture) DataURI() string {
	return EncodeDataURI(p.MediaType, p.Data)
}

// Intake validates and decodes an upload and fits it into the display box.
//
// EXIF orientation is applied during decoding so that phone photographs are
// displayed upright.
//
// Returns an error wrapping ErrNoFile, ErrTooLarge, ErrNotImage or ErrDecode.
func Intake(u *Upload, opts IntakeOptions) (*Picture, error) {
	opts = opts.withDefaults()

	if err := Validate(u, opts.MaxBytes); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	return &Picture{
		Name:          u.Name,
		MediaType:     u.MediaType(),
		Size:          u.ByteSize(),
		NaturalWidth:  bounds.Dx(),
		NaturalHeight: bounds.Dy(),
		Data:          u.Data,
		Display:       Fit(img, opts.MaxWidth, opts.MaxHeight),
	}, nil
}

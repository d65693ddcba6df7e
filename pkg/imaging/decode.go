// Package imaging decodes images, reads their orientation and produces
// thumbnails and perceptual hashes for the catalog.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files no registered decoder understands
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decoded is an image together with the metadata read while decoding it
type Decoded struct {
	Image       image.Image
	Format      string
	Orientation int // EXIF orientation tag, 1 when absent
}

// Decode reads a full image and its EXIF orientation from data
func Decode(data []byte) (*Decoded, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Decoded{
		Image:       img,
		Format:      format,
		Orientation: ReadOrientation(bytes.NewReader(data)),
	}, nil
}

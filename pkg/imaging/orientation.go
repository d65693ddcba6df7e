package imaging

import (
	"image"
	"image/draw"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadOrientation returns the EXIF orientation tag (1-8), or 1 when the
// data carries no EXIF block or the tag is missing
func ReadOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// OrientationDegrees maps an EXIF orientation to a clockwise rotation in
// degrees. Mirrored orientations map to the rotation of their unmirrored twin.
func OrientationDegrees(orientation int) int {
	switch orientation {
	case 3, 4:
		return 180
	case 6, 5:
		return 90
	case 8, 7:
		return 270
	default:
		return 0
	}
}

// Rotate returns img rotated clockwise by degrees (0, 90, 180 or 270)
func Rotate(img image.Image, degrees int) image.Image {
	degrees = ((degrees % 360) + 360) % 360
	if degrees == 0 {
		return img
	}

	src := img.Bounds()
	w, h := src.Dx(), src.Dy()

	var dst *image.RGBA
	if degrees == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, src.Min, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := rgba.RGBAAt(x, y)
			switch degrees {
			case 90:
				dst.SetRGBA(h-1-y, x, c)
			case 180:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case 270:
				dst.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return dst
}

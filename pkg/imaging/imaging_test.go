package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func gradient(w, h int, reverse bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			if reverse {
				v = 255 - v
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, gradient(40, 20, false))

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if decoded.Format != "png" {
		t.Errorf("Format = %q, want png", decoded.Format)
	}
	if decoded.Orientation != 1 {
		t.Errorf("Orientation = %d, want 1 without EXIF", decoded.Orientation)
	}
	if b := decoded.Image.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("bounds = %v", b)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_TruncatedPNG(t *testing.T) {
	data := encodePNG(t, gradient(40, 20, false))
	_, err := Decode(data[:len(data)/2])
	if err == nil {
		t.Fatal("expected error for truncated image")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("truncated png should be a decode error, not an unknown format")
	}
}

func TestOrientationDegrees(t *testing.T) {
	tests := map[int]int{1: 0, 2: 0, 3: 180, 4: 180, 5: 90, 6: 90, 7: 270, 8: 270, 0: 0, 42: 0}
	for orientation, want := range tests {
		if got := OrientationDegrees(orientation); got != want {
			t.Errorf("OrientationDegrees(%d) = %d, want %d", orientation, got, want)
		}
	}
}

func TestRotate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	red := color.RGBA{R: 255, A: 255}
	img.SetRGBA(0, 0, red)

	tests := []struct {
		degrees    int
		w, h       int
		redX, redY int
	}{
		{0, 3, 2, 0, 0},
		{90, 2, 3, 1, 0},
		{180, 3, 2, 2, 1},
		{270, 2, 3, 0, 2},
	}

	for _, tt := range tests {
		rotated := Rotate(img, tt.degrees)
		b := rotated.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("Rotate(%d) size = %dx%d, want %dx%d", tt.degrees, b.Dx(), b.Dy(), tt.w, tt.h)
			continue
		}
		r, _, _, _ := rotated.At(tt.redX, tt.redY).RGBA()
		if r != 0xffff {
			t.Errorf("Rotate(%d): expected red pixel at (%d,%d)", tt.degrees, tt.redX, tt.redY)
		}
	}
}

func TestThumbnail_FitsBox(t *testing.T) {
	thumb := Thumbnail(gradient(800, 400, false), 200, 150)
	b := thumb.Bounds()
	if b.Dx() > 200 || b.Dy() > 150 {
		t.Errorf("thumbnail %dx%d exceeds 200x150", b.Dx(), b.Dy())
	}
	if b.Dx() != 200 {
		t.Errorf("expected width-bound thumbnail, got %dx%d", b.Dx(), b.Dy())
	}

	data, err := EncodeJPEG(thumb, 85)
	if err != nil {
		t.Fatalf("EncodeJPEG() error: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("expected JPEG SOI marker")
	}
}

func TestDHash(t *testing.T) {
	a := DHash(gradient(64, 64, false))
	b := DHash(gradient(128, 128, false))
	c := DHash(gradient(64, 64, true))

	if d := HammingDistance(a, b); d > 4 {
		t.Errorf("scaled copies should hash alike, distance %d", d)
	}
	if d := HammingDistance(a, c); d < 32 {
		t.Errorf("reversed gradient should hash differently, distance %d", d)
	}
}

func TestHammingDistance(t *testing.T) {
	if got := HammingDistance(0, 0); got != 0 {
		t.Errorf("HammingDistance(0,0) = %d", got)
	}
	if got := HammingDistance(0, ^uint64(0)); got != 64 {
		t.Errorf("HammingDistance(0,max) = %d", got)
	}
	if got := HammingDistance(0b1011, 0b0001); got != 2 {
		t.Errorf("HammingDistance = %d, want 2", got)
	}
}

package imaging

import (
	"image"
	"image/color"
	"math/bits"

	"github.com/nfnt/resize"
)

// DHash computes a 64-bit difference hash: the image is shrunk to 9×8
// grayscale and each bit records whether a pixel is brighter than its
// right-hand neighbour.
func DHash(img image.Image) uint64 {
	small := resize.Resize(9, 8, img, resize.Bilinear)
	b := small.Bounds()

	var hash uint64
	var bit uint
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			left := luminance(small.At(b.Min.X+x, b.Min.Y+y))
			right := luminance(small.At(b.Min.X+x+1, b.Min.Y+y))
			if left > right {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash
}

// HammingDistance returns the number of differing bits between two hashes
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

func luminance(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

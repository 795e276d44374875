package dedup

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math/bits"

	"github.com/disintegration/imaging"
)

// hashSide is the downsample size for the average hash: an 8x8 grid gives
// a 64-bit fingerprint.
const hashSide = 8

// Hash is a 64-bit perceptual fingerprint of an image, robust to minor
// capture variation (angle, lighting, compression).
type Hash uint64

// AverageHash computes the average-hash fingerprint of an image.
//
// The image is downsampled to 8x8 with a box filter (area averaging), each
// cell is converted to luminance, and every cell brighter than the grid mean
// sets one bit. Two captures of the same document differ in only a few bits;
// different documents differ in roughly half.
func AverageHash(img image.Image) Hash {
	small := imaging.Resize(img, hashSide, hashSide, imaging.Box)

	var lum [hashSide * hashSide]float64
	var mean float64
	for y := 0; y < hashSide; y++ {
		for x := 0; x < hashSide; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			v := float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
			lum[y*hashSide+x] = v
			mean += v
		}
	}
	mean /= hashSide * hashSide

	var h Hash
	for i, v := range lum {
		if v > mean {
			h |= 1 << uint(i)
		}
	}
	return h
}

// Distance returns the Hamming distance between two hashes (0-64).
func (h Hash) Distance(other Hash) int {
	return bits.OnesCount64(uint64(h ^ other))
}

// Similarity maps the Hamming distance to [0, 1], where 1 is identical.
func (h Hash) Similarity(other Hash) float64 {
	return 1.0 - float64(h.Distance(other))/float64(hashSide*hashSide)
}

// String renders the hash as 16 hex digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// fingerprint decodes image bytes once and computes both the perceptual hash
// and the quality score.
func fingerprint(imageBytes []byte) (Hash, float64, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return AverageHash(img), Quality(img), nil
}

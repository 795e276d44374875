package dedup

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// Quality score weights. Sharpness dominates in raw magnitude (Laplacian
// variance grows quadratically with edge contrast) so it gets the smaller
// weight; the two terms end up comparable for typical captures.
const (
	qualitySharpnessWeight = 0.01
	qualityContrastWeight  = 0.1
)

// laplacianBias recenters the signed Laplacian response so it survives the
// unsigned image representation.
const laplacianBias = 128

// Quality scores an image capture on sharpness and contrast. It is a cheap
// relative metric used only to pick the better of two captures of the same
// document; absolute values carry no meaning.
//
// Sharpness is the variance of the 3x3 Laplacian response (blur flattens the
// response toward zero). Contrast is the standard deviation of the gray
// levels (washed-out captures cluster around a single level).
func Quality(img image.Image) float64 {
	gray := effect.Grayscale(img)

	kernel := convolution.NewKernel(3, 3)
	kernel.Matrix = []float64{
		0, 1, 0,
		1, -4, 1,
		0, 1, 0,
	}
	lap := convolution.Convolve(gray, kernel, &convolution.Options{
		Bias:      laplacianBias,
		KeepAlpha: true,
	})

	sharpness := pixVariance(lap.Pix, laplacianBias)
	contrast := math.Sqrt(pixVariance(gray.Pix, meanPix(gray.Pix)))

	return sharpness*qualitySharpnessWeight + contrast*qualityContrastWeight
}

// meanPix averages the red channel of an RGBA pixel buffer. For grayscale
// images all color channels are equal.
func meanPix(pix []uint8) float64 {
	if len(pix) < 4 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i < len(pix); i += 4 {
		sum += float64(pix[i])
		n++
	}
	return sum / float64(n)
}

// pixVariance computes the variance of the red channel around center.
func pixVariance(pix []uint8, center float64) float64 {
	if len(pix) < 4 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i < len(pix); i += 4 {
		d := float64(pix[i]) - center
		sum += d * d
		n++
	}
	return sum / float64(n)
}

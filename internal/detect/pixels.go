package detect

import (
	"image"
	"math"
)

// Pixel-level building blocks shared by the detectors. Grayscale planes use
// float64 values on the 0-255 scale.

// grayPlane converts an image to a grayscale plane using ITU-R BT.601
// luminance weights: Y = 0.299*R + 0.587*G + 0.114*B.
func grayPlane(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
		}
	}
	return gray
}

// gaussianBlur5 applies a 5x5 Gaussian blur (sigma ≈ 1.4) to reduce noise
// before edge detection. Border pixels use clamped edge values.
func gaussianBlur5(gray [][]float64) [][]float64 {
	kernel := [][]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	kernelSum := 273.0

	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += gray[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// binarize thresholds a gray plane: true where the pixel exceeds thresh.
func binarize(gray [][]float64, thresh float64) [][]bool {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			mask[y][x] = gray[y][x] > thresh
		}
	}
	return mask
}

// adaptiveBinarize thresholds each pixel against the mean of its block×block
// neighborhood minus offset. Uses a summed-area table so the neighborhood
// mean is O(1) per pixel.
func adaptiveBinarize(gray [][]float64, block int, offset float64) [][]bool {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	// Summed-area table with a one-row/column zero border.
	sat := make([][]float64, height+1)
	sat[0] = make([]float64, width+1)
	for y := 1; y <= height; y++ {
		sat[y] = make([]float64, width+1)
		var rowSum float64
		for x := 1; x <= width; x++ {
			rowSum += gray[y-1][x-1]
			sat[y][x] = sat[y-1][x] + rowSum
		}
	}

	half := block / 2
	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			x1 := clamp(x-half, 0, width-1)
			y1 := clamp(y-half, 0, height-1)
			x2 := clamp(x+half, 0, width-1)
			y2 := clamp(y+half, 0, height-1)

			area := float64((x2 - x1 + 1) * (y2 - y1 + 1))
			sum := sat[y2+1][x2+1] - sat[y1][x2+1] - sat[y2+1][x1] + sat[y1][x1]
			mask[y][x] = gray[y][x] > sum/area-offset
		}
	}
	return mask
}

// orMask combines two same-sized binary masks.
func orMask(a, b [][]bool) [][]bool {
	out := make([][]bool, len(a))
	for y := range a {
		out[y] = make([]bool, len(a[y]))
		for x := range a[y] {
			out[y][x] = a[y][x] || b[y][x]
		}
	}
	return out
}

// blob is a connected component of set pixels in a binary mask.
type blob struct {
	minX, minY, maxX, maxY int
	count                  int
}

// bbox returns the blob's bounding box.
func (b blob) bbox() BBox {
	return BBox{X: b.minX, Y: b.minY, W: b.maxX - b.minX + 1, H: b.maxY - b.minY + 1}
}

// aspect returns height/width of the blob's bounding box.
func (b blob) aspect() float64 {
	w := b.maxX - b.minX + 1
	h := b.maxY - b.minY + 1
	if w == 0 {
		return 0
	}
	return float64(h) / float64(w)
}

// findBlobs groups set pixels into 8-connected components using an iterative
// flood fill. Components smaller than minCount pixels are discarded as noise.
func findBlobs(mask [][]bool, minCount int) []blob {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	var blobs []blob
	type point struct{ x, y int }

	for sy := 0; sy < height; sy++ {
		for sx := 0; sx < width; sx++ {
			if !mask[sy][sx] || visited[sy][sx] {
				continue
			}

			b := blob{minX: sx, minY: sy, maxX: sx, maxY: sy}
			stack := []point{{sx, sy}}

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
					continue
				}
				if visited[p.y][p.x] || !mask[p.y][p.x] {
					continue
				}

				visited[p.y][p.x] = true
				b.count++
				if p.x < b.minX {
					b.minX = p.x
				}
				if p.x > b.maxX {
					b.maxX = p.x
				}
				if p.y < b.minY {
					b.minY = p.y
				}
				if p.y > b.maxY {
					b.maxY = p.y
				}

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, point{p.x + dx, p.y + dy})
					}
				}
			}

			if b.count >= minCount {
				blobs = append(blobs, b)
			}
		}
	}
	return blobs
}

// cannyEdges performs Canny-style edge detection on a gray plane.
//
// Pipeline: Gaussian blur, Sobel gradients, non-maximum suppression, then
// hysteresis thresholding with the given low/high bounds (0-255 scale).
func cannyEdges(gray [][]float64, low, high float64) [][]bool {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	blurred := gaussianBlur5(gray)

	sobelX := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += blurred[py][px] * sobelX[ky+1][kx+1]
					gy += blurred[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression thins edges to single-pixel width.
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	// Hysteresis: strong edges always kept, weak edges kept only when
	// adjacent to a strong edge.
	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= high {
				edges[y][x] = true
			} else if val >= low {
				for ky := -1; ky <= 1 && !edges[y][x]; ky++ {
					for kx := -1; kx <= 1 && !edges[y][x]; kx++ {
						py := clamp(y+ky, 0, height-1)
						px := clamp(x+kx, 0, width-1)
						if suppressed[py][px] >= high {
							edges[y][x] = true
						}
					}
				}
			}
		}
	}
	return edges
}

// edgeDensity returns the fraction of set pixels in a binary mask.
func edgeDensity(mask [][]bool) float64 {
	height := len(mask)
	if height == 0 {
		return 0
	}
	width := len(mask[0])
	if width == 0 {
		return 0
	}

	count := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] {
				count++
			}
		}
	}
	return float64(count) / float64(width*height)
}

// regionMean returns the mean gray level inside a bounding box.
func regionMean(gray [][]float64, box BBox) float64 {
	height := len(gray)
	if height == 0 || box.W <= 0 || box.H <= 0 {
		return 0
	}
	width := len(gray[0])

	var sum float64
	var n int
	for y := box.Y; y < box.Y+box.H; y++ {
		if y < 0 || y >= height {
			continue
		}
		for x := box.X; x < box.X+box.W; x++ {
			if x < 0 || x >= width {
				continue
			}
			sum += gray[y][x]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// horizontalLineDensity measures how much of a region looks like rows of
// printed text: the fraction of pixels whose vertical Sobel response exceeds
// a fixed gradient threshold.
func horizontalLineDensity(gray [][]float64, box BBox) float64 {
	height := len(gray)
	if height == 0 || box.W <= 0 || box.H <= 0 {
		return 0
	}
	width := len(gray[0])

	const gradientThreshold = 30.0
	sobelY := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	hits := 0
	total := 0
	for y := box.Y; y < box.Y+box.H; y++ {
		if y < 0 || y >= height {
			continue
		}
		for x := box.X; x < box.X+box.W; x++ {
			if x < 0 || x >= width {
				continue
			}
			var gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gy += gray[py][px] * sobelY[ky+1][kx+1]
				}
			}
			total++
			if math.Abs(gy) > gradientThreshold {
				hits++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// clamp restricts v to [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

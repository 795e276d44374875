package detect

import (
	"image"
	"math"
)

// General contour score weights. The three signals are combined additively;
// area coverage carries the most weight because a document presented for
// capture dominates the frame.
const (
	generalWeightRectangularity = 0.3
	generalWeightAspect         = 0.3
	generalWeightArea           = 0.4

	generalAspectIdeal    = 2.0
	generalAspectMax      = 3.0
	generalAreaRatioMin   = 0.1
	generalAreaRatioMax   = 0.8
	generalPartialAreaScore = 0.5

	generalScoreFloor = 0.3

	// An edge-dense frame with no clean contour still likely holds a
	// document (e.g. a page filling the whole frame); rescue it with a
	// modest confidence instead of dropping it.
	generalEdgeRescueScore = 0.4

	generalCannyLow  = 30
	generalCannyHigh = 100

	// Contours shorter than this are noise.
	generalMinContourPixels = 10
)

// GeneralDetector finds any rectangular document using edge detection and
// contour analysis. It is the cascade's catch-all stage.
type GeneralDetector struct {
	Tuning Tuning
}

// Name identifies the detector in diagnostics and timing maps.
func (d *GeneralDetector) Name() string { return "general_detector" }

// Detect looks for a rectangular outline in the frame's edge map.
//
// Each edge contour is scored on three signals:
//
//   - rectangularity: how closely the contour's length tracks the perimeter
//     of its bounding box (1.0 = perfect axis-aligned rectangle)
//   - aspect: long side over short side, ideal around 2.0, rejected past 3.0
//   - area: bounding-box share of the frame, full score inside [0.1, 0.8]
//
// If no contour clears the floor but the overall edge density is high, the
// frame is rescued with a whole-frame bounding box at reduced confidence.
func (d *GeneralDetector) Detect(img image.Image) Result {
	result := noDetection()
	if img == nil {
		return result
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	frameArea := width * height
	if frameArea == 0 {
		return result
	}

	gray := grayPlane(img)
	edges := cannyEdges(gray, generalCannyLow, generalCannyHigh)

	var bestScore float64
	var bestBox BBox

	for _, c := range findBlobs(edges, generalMinContourPixels) {
		box := c.bbox()
		area := box.Area()
		if float64(area) < float64(frameArea)*d.Tuning.ContourAreaMin ||
			float64(area) > float64(frameArea)*d.Tuning.ContourAreaMax {
			continue
		}

		// Rectangularity: a closed rectangle outline has a contour pixel
		// count near 2*(w+h).
		expectedPerimeter := 2 * (box.W + box.H)
		rectangularity := 1.0 - math.Abs(float64(c.count-expectedPerimeter))/float64(expectedPerimeter)
		if rectangularity < 0 {
			rectangularity = 0
		}

		long := math.Max(float64(box.W), float64(box.H))
		short := math.Min(float64(box.W), float64(box.H))
		aspectRatio := 0.0
		if short > 0 {
			aspectRatio = long / short
		}
		aspectScore := 0.0
		if aspectRatio >= 1.0 && aspectRatio <= generalAspectMax {
			aspectScore = 1.0
		} else {
			aspectScore = math.Max(0, 1-math.Abs(aspectRatio-generalAspectIdeal)/2)
		}

		areaRatio := float64(area) / float64(frameArea)
		areaScore := generalPartialAreaScore
		if areaRatio >= generalAreaRatioMin && areaRatio <= generalAreaRatioMax {
			areaScore = 1.0
		}

		score := rectangularity*generalWeightRectangularity +
			aspectScore*generalWeightAspect +
			areaScore*generalWeightArea

		if score > bestScore {
			bestScore = score
			bestBox = box
		}
	}

	if edgeDensity(edges) > d.Tuning.EdgeDensityMin && bestScore < generalScoreFloor {
		bestScore = math.Max(bestScore, generalEdgeRescueScore)
		if bestBox.Area() == 0 {
			bestBox = BBox{X: 0, Y: 0, W: width, H: height}
		}
	}

	if bestScore > generalScoreFloor && bestBox.Area() > 0 {
		result.Detected = true
		result.Confidence = bestScore
		box := bestBox
		result.BBox = &box
		result.Type = TypeGeneric
		result.Method = d.Name()
		result.AreaRatio = float64(box.Area()) / float64(frameArea)
	}
	return result
}

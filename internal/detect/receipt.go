package detect

import "image"

// Receipt feature weights. Each feature votes independently; the sum is the
// blob's confidence, capped at 1.0. Weights are additive and hand-tuned, kept
// as named constants so each feature's contribution is testable in isolation.
const (
	receiptWeightTallNarrow  = 0.4 // aspect > receiptTallAspect
	receiptWeightVertical    = 0.2 // aspect above the configured minimum
	receiptWeightLargeArea   = 0.2 // blob covers a meaningful share of the frame
	receiptWeightTextLines   = 0.3 // dense horizontal gradients inside the blob
	receiptWeightBrightPaper = 0.1 // bright mean gray level (thermal paper)

	receiptTallAspect         = 1.5
	receiptLargeAreaRatio     = 0.15
	receiptTextLineDensityMin = 0.05
	receiptScoreFloor         = 0.3

	// Simple binarization threshold for paper vs background, combined with
	// an adaptive threshold so both evenly and unevenly lit paper survive.
	receiptPaperThreshold = 160
)

// ReceiptDetector scores frames against the thermal-receipt archetype:
// a tall, narrow, bright blob with rows of printed text.
type ReceiptDetector struct {
	Tuning Tuning
}

// Name identifies the detector in diagnostics and timing maps.
func (d *ReceiptDetector) Name() string { return "receipt_detector" }

// Detect looks for receipt-shaped paper in the frame.
//
// The frame is binarized twice (adaptive and simple threshold, OR-combined),
// bright blobs are extracted, and each blob is scored on four features:
// tall/narrow shape, area coverage, text-line density, and paper brightness.
// The best-scoring blob wins if it clears the score floor.
func (d *ReceiptDetector) Detect(img image.Image) Result {
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
	mask := orMask(
		adaptiveBinarize(gray, 11, 2),
		binarize(gray, receiptPaperThreshold),
	)

	minCount := int(float64(frameArea) * d.Tuning.ReceiptAreaMin)
	if minCount < 1 {
		minCount = 1
	}

	var bestScore float64
	var bestBox BBox
	var bestFeatures []string

	for _, b := range findBlobs(mask, minCount) {
		box := b.bbox()
		aspect := b.aspect()
		areaRatio := float64(b.count) / float64(frameArea)

		var score float64
		var features []string

		if aspect > receiptTallAspect {
			score += receiptWeightTallNarrow
			features = append(features, "tall_narrow")
		} else if aspect > d.Tuning.ReceiptAspectMin {
			score += receiptWeightVertical
			features = append(features, "vertical")
		}

		if areaRatio > receiptLargeAreaRatio {
			score += receiptWeightLargeArea
			features = append(features, "large_area")
		}

		if horizontalLineDensity(gray, box) > receiptTextLineDensityMin {
			score += receiptWeightTextLines
			features = append(features, "text_lines")
		}

		if regionMean(gray, box) > d.Tuning.ReceiptBrightnessMin {
			score += receiptWeightBrightPaper
			features = append(features, "bright_paper")
		}

		if score > bestScore {
			bestScore = score
			bestBox = box
			bestFeatures = features
		}
	}

	if bestScore > receiptScoreFloor {
		result.Detected = true
		if bestScore > 1.0 {
			bestScore = 1.0
		}
		result.Confidence = bestScore
		box := bestBox
		result.BBox = &box
		result.Type = TypeReceipt
		result.Method = d.Name()
		result.Features = bestFeatures
		result.AreaRatio = float64(box.Area()) / float64(frameArea)
	}
	return result
}

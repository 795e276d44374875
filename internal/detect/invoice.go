package detect

import "image"

// Invoice feature weights. An invoice is an A4-ish rectangle with structured
// content; the accept bar is higher than the receipt floor because two of the
// three features are weak individually.
const (
	invoiceWeightA4Portrait  = 0.4 // aspect inside the configured A4 portrait band
	invoiceWeightA4Landscape = 0.3 // aspect in the landscape band (0.70-0.85)
	invoiceWeightRectangular = 0.2 // blob outline close to its bounding rectangle
	invoiceWeightStructured  = 0.2 // moderate edge density inside the blob

	invoiceLandscapeAspectMin = 0.70
	invoiceLandscapeAspectMax = 0.85
	invoiceStructuredEdgeMin  = 0.03
	invoiceStructuredEdgeMax  = 0.2
	invoiceScoreFloor         = 0.4

	invoicePaperThreshold = 150

	// How closely the blob's pixel count must track its bounding-box
	// perimeter to count as a clean rectangle outline.
	invoiceRectangularityMin = 0.6
)

// InvoiceDetector scores frames against the A4 invoice archetype.
type InvoiceDetector struct {
	Tuning Tuning
}

// Name identifies the detector in diagnostics and timing maps.
func (d *InvoiceDetector) Name() string { return "invoice_detector" }

// Detect looks for an A4-format page in the frame.
//
// Bright blobs are extracted with a fixed threshold and each is scored on
// aspect ratio (portrait or landscape A4 band), outline rectangularity, and
// interior edge density in the range typical of printed layout. The first
// blob clearing the score floor wins.
func (d *InvoiceDetector) Detect(img image.Image) Result {
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
	mask := binarize(gray, invoicePaperThreshold)

	minCount := int(float64(frameArea) * d.Tuning.InvoiceAreaMin)
	if minCount < 1 {
		minCount = 1
	}

	for _, b := range findBlobs(mask, minCount) {
		box := b.bbox()
		aspect := b.aspect()

		var score float64
		var features []string

		if aspect >= d.Tuning.InvoiceAspectMin && aspect <= d.Tuning.InvoiceAspectMax {
			score += invoiceWeightA4Portrait
			features = append(features, "a4_format")
		} else if aspect >= invoiceLandscapeAspectMin && aspect <= invoiceLandscapeAspectMax {
			score += invoiceWeightA4Landscape
			features = append(features, "a4_landscape")
		}

		// A filled rectangular page has a pixel count close to its
		// bounding-box area.
		if box.Area() > 0 {
			fill := float64(b.count) / float64(box.Area())
			if fill > invoiceRectangularityMin {
				score += invoiceWeightRectangular
				features = append(features, "rectangular")
			}
		}

		roi := subPlane(gray, box)
		if len(roi) > 0 {
			density := edgeDensity(cannyEdges(roi, 50, 150))
			if density > invoiceStructuredEdgeMin && density < invoiceStructuredEdgeMax {
				score += invoiceWeightStructured
				features = append(features, "structured_content")
			}
		}

		if score > invoiceScoreFloor {
			result.Detected = true
			if score > 1.0 {
				score = 1.0
			}
			result.Confidence = score
			out := box
			result.BBox = &out
			result.Type = TypeInvoice
			result.Method = d.Name()
			result.Features = features
			result.AreaRatio = float64(box.Area()) / float64(frameArea)
			return result
		}
	}
	return result
}

// subPlane copies the region of a gray plane covered by box, clamped to the
// plane bounds.
func subPlane(gray [][]float64, box BBox) [][]float64 {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	y1 := clamp(box.Y, 0, height-1)
	y2 := clamp(box.Y+box.H, 0, height)
	x1 := clamp(box.X, 0, width-1)
	x2 := clamp(box.X+box.W, 0, width)
	if y2 <= y1 || x2 <= x1 {
		return nil
	}

	out := make([][]float64, y2-y1)
	for y := y1; y < y2; y++ {
		row := make([]float64, x2-x1)
		copy(row, gray[y][x1:x2])
		out[y-y1] = row
	}
	return out
}

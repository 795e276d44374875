package detect

// Tuning collects the heuristic thresholds used by the shape detectors.
// Values are fractions of frame area unless noted otherwise.
type Tuning struct {
	// Receipt detector
	ReceiptAspectMin     float64 // minimum height/width to count as vertical
	ReceiptAreaMin       float64 // minimum blob area as a fraction of the frame
	ReceiptBrightnessMin float64 // minimum mean gray level (0-255) for paper

	// Invoice detector
	InvoiceAspectMin float64 // A4 portrait aspect range, height/width
	InvoiceAspectMax float64
	InvoiceAreaMin   float64

	// General detector
	EdgeDensityMin float64 // edge-pixel fraction that rescues a weak contour score
	ContourAreaMin float64
	ContourAreaMax float64
}

// DefaultTuning returns the tuned constants the detectors ship with.
func DefaultTuning() Tuning {
	return Tuning{
		ReceiptAspectMin:     1.2,
		ReceiptAreaMin:       0.05,
		ReceiptBrightnessMin: 150,
		InvoiceAspectMin:     1.2,
		InvoiceAspectMax:     1.6,
		InvoiceAreaMin:       0.1,
		EdgeDensityMin:       0.04,
		ContourAreaMin:       0.03,
		ContourAreaMax:       0.98,
	}
}

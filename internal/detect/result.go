package detect

import "time"

// DocumentType identifies the archetype a detector matched.
type DocumentType string

const (
	TypeReceipt DocumentType = "receipt"
	TypeInvoice DocumentType = "invoice"
	TypeGeneric DocumentType = "document"
	TypeUnknown DocumentType = "unknown"
)

// BBox is a detected region in pixel coordinates: top-left corner plus size.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the box area in square pixels.
func (b BBox) Area() int {
	return b.W * b.H
}

// Result is produced once per analyzed frame by the Router.
//
// Invariants:
//   - Detected == true implies Confidence > 0
//   - BBox is non-nil only when Detected == true
//
// Results are created fresh per frame and consumed immediately by the triage
// engine; they are never persisted.
type Result struct {
	// Detected reports whether any cascade stage matched.
	Detected bool `json:"detected"`

	// Confidence is the winning stage's score in [0, 1].
	Confidence float64 `json:"confidence"`

	// BBox localizes the matched region, or nil when no region was localized.
	BBox *BBox `json:"bbox,omitempty"`

	// Type is the document archetype of the winning stage.
	Type DocumentType `json:"document_type"`

	// Method names the detector that produced the winning result.
	// Diagnostic only; triage never branches on it.
	Method string `json:"method,omitempty"`

	// Features lists the evidence tags that contributed to the score,
	// in the order they were scored. Append-only, diagnostic.
	Features []string `json:"features,omitempty"`

	// AreaRatio is the matched region's share of the frame area.
	AreaRatio float64 `json:"area_ratio"`

	// Timing records per-stage elapsed time for diagnostics.
	Timing map[string]time.Duration `json:"-"`
}

// noDetection returns an empty result with an initialized timing map.
func noDetection() Result {
	return Result{
		Type:   TypeUnknown,
		Timing: make(map[string]time.Duration),
	}
}

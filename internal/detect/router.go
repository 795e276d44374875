package detect

import (
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamq/doc-scanner/internal/metrics"
)

// Cascade acceptance bars. Shape detectors are cheap but noisy, so a stage
// win must clear a higher bar than the detector's own internal floor before
// the cascade short-circuits on it.
const (
	// AcceptBar is the confidence a receipt/invoice stage must exceed for
	// the cascade to stop there.
	AcceptBar = 0.55

	// GeneralBar is the confidence the general detector must exceed before
	// the cascade skips the object-model fallback.
	GeneralBar = 0.3
)

// Detector is one cascade stage. Implementations are treated as pure
// functions of the frame with no side effects.
type Detector interface {
	Name() string
	Detect(img image.Image) Result
}

// Router runs the detection cascade for one frame: cheap shape heuristics
// first, the general edge detector next, and an optional object-detection
// model last. The model is 10-100x slower than the shape stages, so it only
// runs when every cheaper signal is inconclusive.
//
// A Router is read-only after construction and safe to share.
type Router struct {
	receipt Detector
	invoice Detector
	general Detector
	object  Detector // last-resort model, may be nil

	enabled map[DocumentType]bool
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// RouterOption configures optional Router collaborators.
type RouterOption func(*Router)

// WithObjectDetector installs the object-detection fallback stage.
func WithObjectDetector(d Detector) RouterOption {
	return func(r *Router) { r.object = d }
}

// WithMetrics installs pipeline metrics.
func WithMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithLogger installs a logger for stage failures.
func WithLogger(log zerolog.Logger) RouterOption {
	return func(r *Router) { r.log = log }
}

// WithStages overrides the built-in shape detectors. Used by tests to count
// stage invocations.
func WithStages(receipt, invoice, general Detector) RouterOption {
	return func(r *Router) {
		r.receipt = receipt
		r.invoice = invoice
		r.general = general
	}
}

// NewRouter builds a cascade over the built-in detectors for the enabled
// document types.
func NewRouter(tuning Tuning, enabledTypes []DocumentType, opts ...RouterOption) *Router {
	r := &Router{
		receipt: &ReceiptDetector{Tuning: tuning},
		invoice: &InvoiceDetector{Tuning: tuning},
		general: &GeneralDetector{Tuning: tuning},
		enabled: make(map[DocumentType]bool, len(enabledTypes)),
		log:     zerolog.Nop(),
	}
	for _, t := range enabledTypes {
		r.enabled[t] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether a document type participates in the cascade.
func (r *Router) Enabled(t DocumentType) bool {
	return r.enabled[t]
}

// Detect produces exactly one Result for the frame.
//
// Stage order is fixed: receipt, invoice, general, object model. The first
// stage whose confidence clears its bar wins and later stages never run.
// A stage that panics on a malformed frame counts as "no detection" for that
// stage only; the cascade continues.
func (r *Router) Detect(img image.Image) Result {
	start := time.Now()
	result := noDetection()
	if img == nil {
		return result
	}
	r.metrics.IncFrame()

	if r.enabled[TypeReceipt] {
		stage := r.runStage("receipt", r.receipt, img, result.Timing)
		if stage.Detected && stage.Confidence > AcceptBar {
			return r.finish(stage, result.Timing, start)
		}
	}

	if r.enabled[TypeInvoice] {
		stage := r.runStage("invoice", r.invoice, img, result.Timing)
		if stage.Detected && stage.Confidence > AcceptBar {
			return r.finish(stage, result.Timing, start)
		}
	}

	stage := r.runStage("general", r.general, img, result.Timing)
	if stage.Detected && stage.Confidence > GeneralBar {
		return r.finish(stage, result.Timing, start)
	}

	if r.object != nil {
		stage = r.runStage("object", r.object, img, result.Timing)
		if stage.Detected {
			return r.finish(stage, result.Timing, start)
		}
	}

	result.Timing["total"] = time.Since(start)
	return result
}

// runStage executes one detector, recording its elapsed time and converting
// panics into an empty result.
func (r *Router) runStage(name string, d Detector, img image.Image, timing map[string]time.Duration) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn().Str("stage", name).Interface("panic", rec).
				Msg("detector stage failed, treating as no detection")
			res = noDetection()
		}
	}()

	stageStart := time.Now()
	res = d.Detect(img)
	elapsed := time.Since(stageStart)
	timing[name] = elapsed
	r.metrics.ObserveStage(name, elapsed.Seconds())
	return res
}

// finish attaches accumulated timing to the winning stage result.
func (r *Router) finish(stage Result, timing map[string]time.Duration, start time.Time) Result {
	timing["total"] = time.Since(start)
	stage.Timing = timing
	return stage
}

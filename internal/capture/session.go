// Package capture runs the frame-processing loop: pull a frame, run the
// detection cascade, hand the result to the triage engine, and commit
// whatever the engine accepted.
//
// Concurrency model: one goroutine (Run) pulls frames and processes them
// strictly in arrival order; there is no worker pool and no parallel frame
// processing, so triage decisions are applied in frame order by
// construction. User commands (confirm/reject/thresholds) arrive on other
// goroutines and touch only lock-guarded state inside the engine and its
// stores. Stopping the session cancels the context, releases the source,
// and leaves the pending queue and recent window intact so a restarted
// session resumes triage state.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/streamq/doc-scanner/internal/archive"
	"github.com/streamq/doc-scanner/internal/config"
	"github.com/streamq/doc-scanner/internal/detect"
	"github.com/streamq/doc-scanner/internal/metrics"
	"github.com/streamq/doc-scanner/internal/notify"
	"github.com/streamq/doc-scanner/internal/ocr"
	"github.com/streamq/doc-scanner/internal/triage"
)

// ErrSourceUnavailable wraps frame-source failures that end the capture
// loop. Retry policy belongs to whoever constructed the source.
var ErrSourceUnavailable = errors.New("frame source unavailable")

const (
	previewJPEGQuality = 70

	// rateWindow is how many recent frame timestamps feed the frame-rate
	// measurement driving cooldown conversion.
	rateWindow = 30
)

// TextUpdater is implemented by stores that can attach an OCR transcript to
// an already committed document.
type TextUpdater interface {
	UpdateText(doc *archive.Document, text string) error
}

// Session owns one capture run: a frame source, the detection router, the
// triage engine, and the archive store.
type Session struct {
	src      FrameSource
	router   *detect.Router
	engine   *triage.Engine
	store    archive.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
	reader   ocr.Reader

	jpegQuality int
	scanFPS     float64

	latest     atomic.Value // []byte, most recent preview JPEG
	frameTimes []time.Time
	frameCount int

	ocrWG sync.WaitGroup
}

// SessionOption configures optional Session collaborators.
type SessionOption func(*Session)

// WithNotifier installs the event sink.
func WithNotifier(n notify.Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

// WithMetrics installs pipeline metrics.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithLogger installs a structured logger.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithOCR enables post-commit OCR type refinement.
func WithOCR(r ocr.Reader) SessionOption {
	return func(s *Session) { s.reader = r }
}

// WithScanRate sets the target analysis rate in frames per second.
func WithScanRate(fps float64) SessionOption {
	return func(s *Session) {
		if fps > 0 {
			s.scanFPS = fps
		}
	}
}

// WithJPEGQuality sets the candidate encode quality (1-100).
func WithJPEGQuality(q int) SessionOption {
	return func(s *Session) {
		if q >= 1 && q <= 100 {
			s.jpegQuality = q
		}
	}
}

// NewSession wires a capture session. The router, engine, and store are
// required; everything else has working defaults.
func NewSession(src FrameSource, router *detect.Router, engine *triage.Engine, store archive.Store, opts ...SessionOption) *Session {
	s := &Session{
		src:         src,
		router:      router,
		engine:      engine,
		store:       store,
		notifier:    notify.Nop(),
		log:         zerolog.Nop(),
		jpegQuality: 90,
		scanFPS:     2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run pulls frames until the source ends, the source fails, or the context
// is canceled. Per-frame errors never unwind past this loop; only
// source-level failures surface.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info().Str("source", MaskCredentials(s.src.Description())).Msg("capture started")
	defer s.src.Close()
	defer s.ocrWG.Wait()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("capture stopped")
			return nil
		default:
		}

		frame, err := s.src.Read()
		if errors.Is(err, io.EOF) {
			s.log.Info().Msg("frame source ended")
			return nil
		}
		if err != nil {
			s.notifier.Publish(notify.NewEvent(notify.EventSourceLost, notify.LevelError,
				"frame source dropped", map[string]any{"error": err.Error()}))
			return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}

		s.observeFrameRate()
		s.frameCount++

		if s.frameCount%s.detectionInterval() == 0 {
			s.analyzeFrame(frame)
		}

		if preview, err := encodeJPEG(frame, previewJPEGQuality); err == nil {
			s.latest.Store(preview)
		}
	}
}

// analyzeFrame runs one frame through the cascade and the engine, then acts
// on the decision.
func (s *Session) analyzeFrame(frame image.Image) {
	res := s.router.Detect(frame)

	decision := s.engine.ProcessFrame(res, func() ([]byte, error) {
		return encodeJPEG(frame, s.jpegQuality)
	})

	if decision.Action != triage.ActionAutoArchive || decision.Candidate == nil {
		return
	}

	img := s.engine.TakeLastDocument()
	if img == nil {
		img = decision.Candidate.Image
	}
	cand := decision.Candidate
	if err := s.commit(cand.ID, img, cand.Detection, cand.DocType); err != nil {
		s.log.Error().Err(err).Str("doc_type", string(cand.DocType)).Msg("auto-archive commit failed")
	}
}

// commit persists one accepted candidate. Failures are surfaced to the
// notifier and returned; the candidate is never re-queued automatically, to
// avoid infinite retry loops on a persistently failing store.
func (s *Session) commit(id string, img []byte, res detect.Result, docType detect.DocumentType) error {
	doc, err := s.store.Commit(id, img, res, docType)
	if err != nil {
		s.metrics.IncCommit("error")
		s.notifier.Publish(notify.NewEvent(notify.EventError, notify.LevelError,
			"archive commit failed", map[string]any{"id": id, "error": err.Error()}))
		return fmt.Errorf("archive commit: %w", err)
	}
	s.metrics.IncCommit("ok")
	s.log.Info().Str("id", doc.ID).Str("doc_type", string(doc.DocType)).
		Float64("confidence", doc.Confidence).Msg("document archived")

	if s.reader != nil {
		s.ocrWG.Add(1)
		go s.refineType(doc, img)
	}
	return nil
}

// refineType OCRs a committed document off the capture path and publishes
// the keyword-classified type.
func (s *Session) refineType(doc *archive.Document, img []byte) {
	defer s.ocrWG.Done()

	text, err := s.reader.Text(img)
	if err != nil {
		s.log.Debug().Err(err).Str("id", doc.ID).Msg("OCR refinement failed")
		return
	}

	docType, confidence := ocr.ClassifyText(text)
	if updater, ok := s.store.(TextUpdater); ok {
		if err := updater.UpdateText(doc, text); err != nil {
			s.log.Debug().Err(err).Str("id", doc.ID).Msg("failed to store transcript")
		}
	}
	s.notifier.Publish(notify.NewEvent(notify.EventDocumentClassified, notify.LevelInfo,
		fmt.Sprintf("classified from text: %s", docType),
		map[string]any{"id": doc.ID, "doc_type": string(docType), "confidence": confidence}))
}

// Confirm archives a pending candidate by id.
func (s *Session) Confirm(id string) error {
	cand, err := s.engine.Confirm(id)
	if err != nil {
		return err
	}
	if err := s.commit(cand.ID, cand.Image, cand.Detection, cand.DocType); err != nil {
		return err
	}
	s.notifier.Publish(notify.NewEvent(notify.EventConfirmed, notify.LevelSuccess,
		fmt.Sprintf("saved: %s", cand.DocType), map[string]any{"id": cand.ID}))
	return nil
}

// ConfirmAll archives every pending candidate, continuing past individual
// commit failures. Returns how many were archived.
func (s *Session) ConfirmAll() int {
	saved := 0
	for _, cand := range s.engine.ConfirmAll() {
		if err := s.commit(cand.ID, cand.Image, cand.Detection, cand.DocType); err != nil {
			continue
		}
		saved++
	}
	if saved > 0 {
		s.notifier.Publish(notify.NewEvent(notify.EventConfirmed, notify.LevelSuccess,
			fmt.Sprintf("confirmed %d documents", saved), nil))
	}
	return saved
}

// Reject drops one pending candidate.
func (s *Session) Reject(id string) error {
	return s.engine.Reject(id)
}

// RejectAll drops every pending candidate.
func (s *Session) RejectAll() int {
	return s.engine.RejectAll()
}

// SetThreshold forwards a threshold update to the engine.
func (s *Session) SetThreshold(name string, value float64) error {
	return s.engine.SetThreshold(name, value)
}

// Settings returns the engine's current thresholds.
func (s *Session) Settings() config.Thresholds {
	return s.engine.Settings()
}

// LatestFrame returns the most recent preview JPEG, or nil before the first
// frame. The returned slice must be treated as read-only.
func (s *Session) LatestFrame() []byte {
	if v := s.latest.Load(); v != nil {
		return v.([]byte)
	}
	return nil
}

// observeFrameRate keeps a sliding window of frame arrival times and feeds
// the measured rate into the engine so cooldown length tracks the actual
// source, whether it is a 30 FPS camera or a 5 FPS RTSP stream.
func (s *Session) observeFrameRate() {
	now := time.Now()
	s.frameTimes = append(s.frameTimes, now)
	if len(s.frameTimes) > rateWindow {
		s.frameTimes = s.frameTimes[len(s.frameTimes)-rateWindow:]
	}
	if fps := s.measuredFPS(); fps > 0 {
		s.engine.SetFrameRate(fps)
	}
}

// measuredFPS derives the source rate from the timestamp window.
func (s *Session) measuredFPS() float64 {
	if len(s.frameTimes) < 2 {
		return 0
	}
	elapsed := s.frameTimes[len(s.frameTimes)-1].Sub(s.frameTimes[0]).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(len(s.frameTimes)-1) / elapsed
}

// detectionInterval converts the measured source rate and the target scan
// rate into "analyze every Nth frame".
func (s *Session) detectionInterval() int {
	fps := s.measuredFPS()
	if fps <= 0 || s.scanFPS <= 0 {
		return 1
	}
	interval := int(fps / s.scanFPS)
	if interval < 1 {
		interval = 1
	}
	return interval
}

// encodeJPEG renders a frame to JPEG at the given quality.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Package triage converts detection results into capture decisions: archive
// unattended, queue for human confirmation, surface passively, or discard as
// a duplicate.
//
// The three-tier threshold design trades recall for reduced human burden.
// High-confidence detections are committed unattended, borderline ones wait
// for confirmation, and low-confidence ones are surfaced for visibility
// without interrupting flow. The cooldown exists because a physical document
// held in front of a continuously sampled source is detected on every frame
// for as long as it is held; without it, one document floods the pending
// queue with near-identical captures.
package triage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamq/doc-scanner/internal/config"
	"github.com/streamq/doc-scanner/internal/dedup"
	"github.com/streamq/doc-scanner/internal/detect"
	"github.com/streamq/doc-scanner/internal/metrics"
	"github.com/streamq/doc-scanner/internal/notify"
)

// Action is the triage outcome for one analyzed frame.
type Action string

const (
	// ActionNone: nothing to do (no detection, below the floor, or cooldown).
	ActionNone Action = ""

	// ActionAutoArchive commits the candidate without confirmation.
	ActionAutoArchive Action = "auto_archive"

	// ActionQueueConfirm appends the candidate to the pending queue.
	ActionQueueConfirm Action = "queue_confirm"

	// ActionNotifyOnly surfaces a possible document without acting on it.
	ActionNotifyOnly Action = "notify_only"

	// ActionDiscard drops the candidate as a duplicate.
	ActionDiscard Action = "discard"
)

// ErrNotPending is returned by Confirm/Reject for unknown candidate ids.
var ErrNotPending = errors.New("document not in pending queue")

// EncodeFunc lazily produces the candidate's JPEG bytes. The engine calls it
// only when the frame clears the confirm threshold, so frames that merely
// trigger a passive notification never pay the encode cost.
type EncodeFunc func() ([]byte, error)

// Decision describes what the engine decided for one frame.
type Decision struct {
	Action Action

	// Candidate is set for auto_archive and queue_confirm decisions.
	Candidate *Candidate

	// Match holds the duplicate-check result when one was run.
	Match *dedup.Match

	// Reason is a short diagnostic tag ("cooldown", duplicate reasons,
	// "encode_failed").
	Reason string
}

// Engine holds the triage state machine. It is READY when accepting new
// candidates and in COOLDOWN for a fixed number of analyzed frames after a
// candidate is accepted. Detections arriving during cooldown are still
// computed by the caller (for live preview) but produce no action.
//
// All methods are safe for concurrent use: ProcessFrame runs on the capture
// goroutine while the command methods run on whoever handles user input.
type Engine struct {
	mu         sync.Mutex
	thresholds config.Thresholds
	checker    *dedup.Checker
	pending    *PendingQueue

	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger

	// frameRate is the measured source rate used to convert CooldownSec
	// into frames. Defaults to 10 until the first measurement arrives.
	frameRate    float64
	cooldownLeft int

	// lastDocument is the single-slot handoff of the most recent
	// auto-archived image for the archiving consumer.
	lastDocument []byte

	now func() time.Time
}

const defaultFrameRate = 10

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithNotifier installs the event sink.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMetrics installs pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger installs a structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine in the READY state. Thresholds are normalized so the
// tier ordering invariant always holds inside the engine.
func New(t config.Thresholds, checker *dedup.Checker, opts ...Option) *Engine {
	t.Normalize()
	e := &Engine{
		thresholds: t,
		checker:    checker,
		pending:    NewPendingQueue(),
		notifier:   notify.Nop(),
		log:        zerolog.Nop(),
		frameRate:  defaultFrameRate,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pending exposes the confirmation queue.
func (e *Engine) Pending() *PendingQueue {
	return e.pending
}

// SetFrameRate updates the measured source frame rate used for cooldown
// conversion. Called by the capture loop as its rate measurement settles.
func (e *Engine) SetFrameRate(fps float64) {
	if fps <= 0 {
		return
	}
	e.mu.Lock()
	e.frameRate = fps
	e.mu.Unlock()
}

// InCooldown reports whether the engine is currently ignoring new candidates.
func (e *Engine) InCooldown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cooldownLeft > 0
}

// TakeLastDocument returns and clears the staged auto-archive image, or nil
// when nothing is staged.
func (e *Engine) TakeLastDocument() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	img := e.lastDocument
	e.lastDocument = nil
	return img
}

// ProcessFrame evaluates one detection result and returns exactly one
// decision. It must be called once per analyzed frame: the cooldown counter
// decrements on every call regardless of whether the frame detected
// anything.
//
// Duplicate-check failures degrade to "not a duplicate" and encode failures
// degrade to notify_only; a single bad frame never stops the capture loop.
func (e *Engine) ProcessFrame(res detect.Result, encode EncodeFunc) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if e.cooldownLeft > 0 {
			e.cooldownLeft--
		}
	}()

	d := Decision{Action: ActionNone}
	if !res.Detected || res.Confidence < e.thresholds.MinConfidence {
		return d
	}
	if e.cooldownLeft > 0 {
		d.Reason = "cooldown"
		return d
	}

	docType := res.Type
	if docType == "" || docType == detect.TypeUnknown {
		docType = detect.TypeGeneric
	}

	// Low tier: passive notification, no bytes needed, no state mutation.
	if res.Confidence < e.thresholds.ConfirmThreshold {
		d.Action = ActionNotifyOnly
		e.metrics.IncAction(string(ActionNotifyOnly), string(docType))
		e.notifier.Publish(notify.NewEvent(notify.EventPossibleDocument, notify.LevelInfo,
			fmt.Sprintf("possible document: %s", docType),
			map[string]any{"doc_type": string(docType), "confidence": res.Confidence, "method": res.Method}))
		return d
	}

	img, err := encode()
	if err != nil {
		e.log.Warn().Err(err).Msg("candidate encode failed, degrading to notify_only")
		d.Action = ActionNotifyOnly
		d.Reason = "encode_failed"
		e.notifier.Publish(notify.NewEvent(notify.EventError, notify.LevelWarning,
			"failed to encode candidate frame", map[string]any{"error": err.Error()}))
		return d
	}

	if res.Confidence >= e.thresholds.AutoSaveThreshold {
		return e.decideAuto(&d, res, docType, img)
	}
	return e.decideConfirm(&d, res, docType, img)
}

// decideAuto handles the high-confidence tier: archive unattended, with the
// duplicate check deciding between commit, in-place replacement, and discard.
func (e *Engine) decideAuto(d *Decision, res detect.Result, docType detect.DocumentType, img []byte) Decision {
	match := e.checkDuplicate(img, docType)
	d.Match = match

	switch {
	case match.IsDuplicate && match.Replace:
		// Same document, better capture: supersede the stored entry
		// instead of archiving a near-identical second copy.
		if err := e.checker.Replace(match.Matched, img); err != nil {
			e.log.Warn().Err(err).Msg("duplicate replacement failed")
		}
		e.lastDocument = img
		d.Action = ActionAutoArchive
		d.Candidate = newCandidate(img, res, docType, e.now())
		d.Candidate.ID = match.Matched.ID
		d.Reason = match.Reason
		e.metrics.IncDuplicate("replaced")
		e.notifier.Publish(notify.NewEvent(notify.EventDuplicateReplaced, notify.LevelInfo,
			fmt.Sprintf("replaced with better capture: %s", docType),
			map[string]any{"doc_type": string(docType), "confidence": res.Confidence, "similarity": match.Similarity}))
		e.startCooldown()

	case match.IsDuplicate:
		d.Action = ActionDiscard
		d.Reason = match.Reason
		e.metrics.IncDuplicate("skipped")
		e.notifier.Publish(notify.NewEvent(notify.EventDuplicateSkipped, notify.LevelInfo,
			fmt.Sprintf("duplicate skipped: %s", docType),
			map[string]any{"doc_type": string(docType), "similarity": match.Similarity}))

	default:
		d.Action = ActionAutoArchive
		d.Candidate = newCandidate(img, res, docType, e.now())
		if err := e.checker.Add(d.Candidate.ID, docType, img); err != nil {
			e.log.Warn().Err(err).Msg("failed to record candidate in recent window")
		}
		e.metrics.SetRecentWindow(e.checker.Len())
		e.lastDocument = img
		e.notifier.Publish(notify.NewEvent(notify.EventAutoArchive, notify.LevelSuccess,
			fmt.Sprintf("auto-archiving: %s", docType),
			map[string]any{"doc_type": string(docType), "confidence": res.Confidence, "method": res.Method}))
		e.startCooldown()
	}

	e.metrics.IncAction(string(d.Action), string(docType))
	return *d
}

// decideConfirm handles the medium-confidence tier: queue for human
// confirmation unless the candidate duplicates a recent document.
func (e *Engine) decideConfirm(d *Decision, res detect.Result, docType detect.DocumentType, img []byte) Decision {
	match := e.checkDuplicate(img, docType)
	d.Match = match

	if match.IsDuplicate {
		d.Action = ActionDiscard
		d.Reason = match.Reason
		e.metrics.IncDuplicate("skipped")
		e.metrics.IncAction(string(ActionDiscard), string(docType))
		e.notifier.Publish(notify.NewEvent(notify.EventDuplicateSkipped, notify.LevelInfo,
			fmt.Sprintf("duplicate skipped: %s", docType),
			map[string]any{"doc_type": string(docType), "similarity": match.Similarity}))
		return *d
	}

	cand := newCandidate(img, res, docType, e.now())
	if err := e.checker.Add(cand.ID, docType, img); err != nil {
		e.log.Warn().Err(err).Msg("failed to record candidate in recent window")
	}
	e.pending.Append(cand)
	e.metrics.SetPending(e.pending.Len())
	e.metrics.SetRecentWindow(e.checker.Len())

	payload := map[string]any{
		"id":         cand.ID,
		"doc_type":   string(docType),
		"confidence": res.Confidence,
		"timestamp":  cand.CapturedAt,
	}
	if thumb := thumbnail(img); thumb != nil {
		payload["thumbnail"] = thumb
	}
	e.notifier.Publish(notify.NewEvent(notify.EventPendingDocument, notify.LevelInfo,
		fmt.Sprintf("awaiting confirmation: %s", docType), payload))

	d.Action = ActionQueueConfirm
	d.Candidate = cand
	e.metrics.IncAction(string(ActionQueueConfirm), string(docType))
	e.startCooldown()
	return *d
}

// checkDuplicate runs the duplicate check, degrading failures to "not a
// duplicate" so a corrupt frame cannot drop a real document.
func (e *Engine) checkDuplicate(img []byte, docType detect.DocumentType) *dedup.Match {
	match, err := e.checker.Check(img, docType)
	if err != nil {
		e.log.Warn().Err(err).Msg("duplicate check failed, treating as new document")
		return &dedup.Match{}
	}
	return &match
}

// startCooldown arms the quiet period. Caller must hold the lock.
func (e *Engine) startCooldown() {
	e.cooldownLeft = int(e.thresholds.CooldownSec * e.frameRate)
}

// Confirm removes a pending candidate and returns it for archiving.
func (e *Engine) Confirm(id string) (*Candidate, error) {
	cand, ok := e.pending.Take(id)
	if !ok {
		return nil, fmt.Errorf("confirm %s: %w", id, ErrNotPending)
	}
	e.metrics.SetPending(e.pending.Len())
	return cand, nil
}

// Reject drops a pending candidate.
func (e *Engine) Reject(id string) error {
	cand, ok := e.pending.Take(id)
	if !ok {
		return fmt.Errorf("reject %s: %w", id, ErrNotPending)
	}
	e.metrics.SetPending(e.pending.Len())
	e.notifier.Publish(notify.NewEvent(notify.EventRejected, notify.LevelWarning,
		fmt.Sprintf("rejected: %s", cand.DocType), map[string]any{"id": cand.ID}))
	return nil
}

// ConfirmAll removes every pending candidate and returns them for archiving.
func (e *Engine) ConfirmAll() []*Candidate {
	items := e.pending.TakeAll()
	e.metrics.SetPending(0)
	return items
}

// RejectAll drops every pending candidate and returns how many were dropped.
func (e *Engine) RejectAll() int {
	items := e.pending.TakeAll()
	e.metrics.SetPending(0)
	if len(items) > 0 {
		e.notifier.Publish(notify.NewEvent(notify.EventRejected, notify.LevelWarning,
			fmt.Sprintf("rejected %d documents", len(items)), nil))
	}
	return len(items)
}

// SetThreshold updates one named threshold and re-normalizes the tier
// ordering invariant.
func (e *Engine) SetThreshold(name string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch name {
	case "min_confidence":
		e.thresholds.MinConfidence = value
	case "confirm_threshold":
		e.thresholds.ConfirmThreshold = value
	case "auto_save_threshold":
		e.thresholds.AutoSaveThreshold = value
	case "cooldown_sec":
		e.thresholds.CooldownSec = value
	default:
		return fmt.Errorf("unknown threshold %q", name)
	}
	e.thresholds.Normalize()

	e.notifier.Publish(notify.NewEvent(notify.EventSettingsChanged, notify.LevelInfo,
		fmt.Sprintf("threshold %s set to %v", name, value),
		map[string]any{"name": name, "value": value}))
	return nil
}

// Settings returns the current thresholds.
func (e *Engine) Settings() config.Thresholds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds
}

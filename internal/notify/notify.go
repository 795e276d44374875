// Package notify delivers triage outcomes to interested consumers (UI,
// logs). Delivery is best-effort and fire-and-forget: the capture loop never
// blocks on a slow consumer.
package notify

import (
	"time"

	"github.com/rs/zerolog"
)

// Event types published by the pipeline.
const (
	EventAutoArchive        = "auto_archive"
	EventPendingDocument    = "pending_document"
	EventPossibleDocument   = "possible_document"
	EventDuplicateSkipped   = "duplicate_skipped"
	EventDuplicateReplaced  = "duplicate_replaced"
	EventConfirmed          = "confirmed"
	EventRejected           = "rejected"
	EventSettingsChanged    = "settings_changed"
	EventDocumentClassified = "document_classified"
	EventError              = "error"
	EventSourceLost         = "source_lost"
)

// Severity levels attached to events.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event is one triage outcome or pipeline status update.
type Event struct {
	Type    string         `json:"type"`
	Level   string         `json:"level"`
	Message string         `json:"message,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// Notifier pushes events to a consumer. Implementations must not block.
type Notifier interface {
	Publish(e Event)
}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Log zerolog.Logger
}

// Publish logs the event at a level matching its severity.
func (n *LogNotifier) Publish(e Event) {
	var ev *zerolog.Event
	switch e.Level {
	case LevelError:
		ev = n.Log.Error()
	case LevelWarning:
		ev = n.Log.Warn()
	default:
		ev = n.Log.Info()
	}
	ev.Str("event", e.Type)
	if e.Payload != nil {
		ev.Fields(e.Payload)
	}
	ev.Msg(e.Message)
}

// ChannelNotifier buffers events on a channel for a UI consumer. When the
// buffer is full the oldest event is dropped so the producer never blocks.
type ChannelNotifier struct {
	ch chan Event
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelNotifier{ch: make(chan Event, buffer)}
}

// Publish enqueues the event, evicting the oldest buffered event on overflow.
func (n *ChannelNotifier) Publish(e Event) {
	for {
		select {
		case n.ch <- e:
			return
		default:
			select {
			case <-n.ch:
			default:
			}
		}
	}
}

// Events exposes the consumer side of the buffer.
func (n *ChannelNotifier) Events() <-chan Event {
	return n.ch
}

// Multi fans one event out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

type multiNotifier []Notifier

func (m multiNotifier) Publish(e Event) {
	for _, n := range m {
		n.Publish(e)
	}
}

// Nop returns a notifier that discards everything.
func Nop() Notifier {
	return nopNotifier{}
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType, level, message string, payload map[string]any) Event {
	return Event{
		Type:    eventType,
		Level:   level,
		Message: message,
		Payload: payload,
		At:      time.Now(),
	}
}

package notify

import (
	"sync"
	"testing"
)

func TestChannelNotifier_DeliversInOrder(t *testing.T) {
	n := NewChannelNotifier(4)

	n.Publish(NewEvent(EventAutoArchive, LevelSuccess, "one", nil))
	n.Publish(NewEvent(EventRejected, LevelWarning, "two", nil))

	e := <-n.Events()
	if e.Message != "one" {
		t.Errorf("Expected first event, got %q", e.Message)
	}
	e = <-n.Events()
	if e.Message != "two" {
		t.Errorf("Expected second event, got %q", e.Message)
	}
}

func TestChannelNotifier_DropsOldestOnOverflow(t *testing.T) {
	n := NewChannelNotifier(2)

	n.Publish(NewEvent(EventError, LevelError, "first", nil))
	n.Publish(NewEvent(EventError, LevelError, "second", nil))
	// Buffer full: the oldest event makes room for the newest.
	n.Publish(NewEvent(EventError, LevelError, "third", nil))

	e := <-n.Events()
	if e.Message == "first" {
		t.Errorf("Expected the oldest event dropped, got %q", e.Message)
	}
	e = <-n.Events()
	if e.Message != "third" {
		t.Errorf("Expected the newest event kept, got %q", e.Message)
	}
}

func TestChannelNotifier_NeverBlocks(t *testing.T) {
	n := NewChannelNotifier(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Publish(NewEvent(EventError, LevelError, "flood", nil))
		}
		close(done)
	}()
	<-done
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Publish(Event) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func TestMulti_FansOut(t *testing.T) {
	a := &countingNotifier{}
	b := &countingNotifier{}

	m := Multi(a, b)
	m.Publish(NewEvent(EventConfirmed, LevelSuccess, "", nil))

	if a.count != 1 || b.count != 1 {
		t.Errorf("Expected both notifiers to receive the event, got %d and %d", a.count, b.count)
	}
}

func TestNewEvent_StampsTime(t *testing.T) {
	e := NewEvent(EventConfirmed, LevelSuccess, "msg", map[string]any{"k": "v"})
	if e.At.IsZero() {
		t.Error("Expected event timestamp to be set")
	}
	if e.Type != EventConfirmed || e.Level != LevelSuccess {
		t.Errorf("Unexpected event fields: %+v", e)
	}
}

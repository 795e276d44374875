package triage

import (
	"testing"
	"time"

	"github.com/streamq/doc-scanner/internal/detect"
)

func queued(id string) *Candidate {
	return &Candidate{ID: id, DocType: detect.TypeReceipt, CapturedAt: time.Now()}
}

func TestPendingQueue_FIFO(t *testing.T) {
	q := NewPendingQueue()
	q.Append(queued("a"))
	q.Append(queued("b"))
	q.Append(queued("c"))

	items := q.TakeAll()
	if len(items) != 3 || items[0].ID != "a" || items[2].ID != "c" {
		t.Errorf("Expected FIFO order, got %v", items)
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after TakeAll, got %d", q.Len())
	}
}

func TestPendingQueue_TakeByID(t *testing.T) {
	q := NewPendingQueue()
	q.Append(queued("a"))
	q.Append(queued("b"))

	c, ok := q.Take("a")
	if !ok || c.ID != "a" {
		t.Fatalf("Expected to take a, got %v %v", c, ok)
	}
	if _, ok := q.Take("a"); ok {
		t.Error("Expected second take of same id to fail")
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 remaining, got %d", q.Len())
	}
}

func TestPendingQueue_SnapshotDoesNotDrain(t *testing.T) {
	q := NewPendingQueue()
	q.Append(queued("a"))

	snap := q.Snapshot()
	if len(snap) != 1 || q.Len() != 1 {
		t.Errorf("Expected snapshot to leave the queue intact, got snap=%d len=%d", len(snap), q.Len())
	}
}

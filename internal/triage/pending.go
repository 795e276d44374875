package triage

import "sync"

// PendingQueue holds candidates awaiting human confirmation in FIFO order.
//
// The queue is the one store mutated from two directions: the capture loop
// appends, user commands take or drop. A mutex guards both paths.
type PendingQueue struct {
	mu    sync.Mutex
	items []*Candidate
}

// NewPendingQueue creates an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Append adds a candidate to the tail of the queue.
func (q *PendingQueue) Append(c *Candidate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// Take removes and returns the candidate with the given id.
func (q *PendingQueue) Take(id string) (*Candidate, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, c := range q.items {
		if c.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// TakeAll removes and returns every queued candidate in FIFO order.
func (q *PendingQueue) TakeAll() []*Candidate {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued candidates.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queue contents for display. The candidates
// themselves are shared; callers must treat them as read-only.
func (q *PendingQueue) Snapshot() []*Candidate {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Candidate, len(q.items))
	copy(out, q.items)
	return out
}

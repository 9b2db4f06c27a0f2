package uploader

import (
	"context"
	"sync"

	"github.com/smukkama/weathercloud-bridge/internal/record"
)

// Queue is an unbounded FIFO of archive records awaiting upload. It is
// built for exactly one producer (the ingest handler) and one consumer
// (the upload worker): Push never blocks and never fails, PopWait parks
// without spinning.
type Queue struct {
	mu    sync.Mutex
	items []*record.Archive
	wake  chan struct{}
}

// NewQueue creates an empty delivery queue.
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends a record to the queue and wakes the consumer.
func (q *Queue) Push(rec *record.Archive) {
	q.mu.Lock()
	q.items = append(q.items, rec)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// PopWait removes and returns the oldest record, blocking until one is
// available or the context is cancelled. The second return is false only
// on cancellation.
func (q *Queue) PopWait(ctx context.Context) (*record.Archive, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			rec := q.items[0]
			q.items[0] = nil // avoid holding the record alive
			q.items = q.items[1:]
			q.mu.Unlock()
			return rec, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// TrimTo drops the oldest records until at most max remain, returning the
// number dropped. The newest records win. A max < 1 means unbounded.
func (q *Queue) TrimTo(max int) int {
	if max < 1 {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	excess := len(q.items) - max
	if excess <= 0 {
		return 0
	}
	for i := 0; i < excess; i++ {
		q.items[i] = nil
	}
	q.items = q.items[excess:]
	return excess
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

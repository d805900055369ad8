package engine

import (
	"sync"

	"github.com/roach88/memorychain/internal/ir"
)

// Result is the outcome of a queued transaction.
type Result struct {
	Receipt ir.Receipt
	Err     error
}

// submission is a transaction waiting for the Run loop.
type submission struct {
	tx   ir.Transaction
	done chan Result // Buffered, size 1
}

// submissionQueue is a thread-safe FIFO queue of transactions.
//
// Thread-safety is provided for external enqueuing (e.g., HTTP handlers)
// while the Engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type submissionQueue struct {
	mu     sync.Mutex
	items  []*submission
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newSubmissionQueue() *submissionQueue {
	return &submissionQueue{
		items:  make([]*submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a submission to the back of the queue.
// Returns false if the queue is closed.
func (q *submissionQueue) Enqueue(s *submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, s)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *submissionQueue) TryDequeue() (*submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	s := q.items[0]
	q.items[0] = nil // Release for GC

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return s, true
}

// Wait returns a channel that signals when submissions may be available.
// The channel is closed when the queue is closed.
func (q *submissionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *submissionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close was called.
func (q *submissionQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more submissions will be enqueued and returns
// anything still pending so the caller can fail it.
func (q *submissionQueue) Close() []*submission {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.signal)

	pending := q.items
	q.items = nil
	return pending
}

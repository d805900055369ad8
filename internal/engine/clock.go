package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic logical clock that orders the receipt log.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The engine's single-writer design means only the executor advances it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume from the last seq in the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Peek returns the value the next call to Next will return.
func (c *Clock) Peek() int64 {
	return c.seq.Load() + 1
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// TimeSource is the host time oracle. Values are unix seconds.
type TimeSource interface {
	Now() int64
}

// SystemTime reads the wall clock.
type SystemTime struct{}

// Now returns the current unix time in seconds.
func (SystemTime) Now() int64 {
	return time.Now().Unix()
}

// fixedTime always returns the same instant. Used by replay.
type fixedTime int64

func (t fixedTime) Now() int64 {
	return int64(t)
}

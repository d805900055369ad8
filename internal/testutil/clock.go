package testutil

import "sync"

// DeterministicTime is a host time source for tests.
//
// Each call to Now returns the current instant and then advances it by a
// fixed step, so a scenario run twice observes identical timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicTime struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// NewDeterministicTime creates a time source starting at start (unix
// seconds) that advances by step after every reading.
func NewDeterministicTime(start, step int64) *DeterministicTime {
	return &DeterministicTime{start: start, step: step, now: start}
}

// Now returns the current instant and advances the clock.
// Implements engine.TimeSource.
func (c *DeterministicTime) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now += c.step
	return t
}

// Peek returns the instant the next call to Now will return.
func (c *DeterministicTime) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *DeterministicTime) Set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Reset moves the clock back to its start.
//
// Used for test reuse. After Reset(), Now() returns start again.
func (c *DeterministicTime) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}

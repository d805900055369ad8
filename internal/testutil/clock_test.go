package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicTime_Advances(t *testing.T) {
	clock := NewDeterministicTime(1000, 10)

	assert.Equal(t, int64(1000), clock.Now())
	assert.Equal(t, int64(1010), clock.Now())
	assert.Equal(t, int64(1020), clock.Peek())
	assert.Equal(t, int64(1020), clock.Now())
}

func TestDeterministicTime_ZeroStepIsFrozen(t *testing.T) {
	clock := NewDeterministicTime(42, 0)

	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(42), clock.Now())
	}
}

func TestDeterministicTime_SetAndReset(t *testing.T) {
	clock := NewDeterministicTime(1000, 1)
	clock.Now()
	clock.Now()

	clock.Set(5000)
	assert.Equal(t, int64(5000), clock.Now())

	clock.Reset()
	assert.Equal(t, int64(1000), clock.Now())
}

func TestDeterministicTime_ConcurrentUniqueReadings(t *testing.T) {
	clock := NewDeterministicTime(0, 1)
	const goroutines = 10
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v := clock.Now()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

package query

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClock_Next tests monotonically increasing sequence numbers.
func TestClock_Next(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

// TestClock_NewClockAt tests resuming from a known position.
func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(100)

	assert.Equal(t, int64(100), c.Current())
	assert.Equal(t, int64(101), c.Next())
}

// TestClock_Concurrent tests that concurrent Next calls yield unique values.
func TestClock_Concurrent(t *testing.T) {
	c := NewClock()

	const n = 100
	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		assert.False(t, unique[v], "sequence %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
	assert.Equal(t, int64(n), c.Current())
}

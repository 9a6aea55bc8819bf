package audio

import "sync/atomic"

// AtomicCounter provides thread-safe counter operations. The scheduler is
// single-threaded, but counters here are also read from other goroutines
// (e.g. AudioThread.CommandsProcessed callers), so loads/stores still go
// through atomic ops.
type AtomicCounter struct {
	value int64
}

// NewAtomicCounter creates a new atomic counter.
func NewAtomicCounter() *AtomicCounter {
	return &AtomicCounter{}
}

// Add atomically adds delta to the counter and returns the new value.
func (c *AtomicCounter) Add(delta int64) int64 {
	return atomic.AddInt64(&c.value, delta)
}

// Increment atomically increments the counter by 1.
func (c *AtomicCounter) Increment() int64 {
	return atomic.AddInt64(&c.value, 1)
}

// Load atomically loads the counter value.
func (c *AtomicCounter) Load() int64 {
	return atomic.LoadInt64(&c.value)
}

// Store atomically stores a new value.
func (c *AtomicCounter) Store(value int64) {
	atomic.StoreInt64(&c.value, value)
}

// Reset atomically resets the counter to zero.
func (c *AtomicCounter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

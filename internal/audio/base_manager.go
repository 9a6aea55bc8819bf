package audio

import "sync/atomic"

// runState tracks whether the worker goroutine is currently running; it
// backs AudioThread.IsRunning. Repeated Start/Stop calls are guarded by
// sync.Once in AudioThread, not by this flag.
type runState struct {
	running int32
}

// trySetRunning attempts the requested transition and reports whether it
// took effect (false means the goroutine was already in that state).
func (rs *runState) trySetRunning(running bool) bool {
	if running {
		return atomic.CompareAndSwapInt32(&rs.running, 0, 1)
	}
	return atomic.CompareAndSwapInt32(&rs.running, 1, 0)
}

// isRunning reports the current state.
func (rs *runState) isRunning() bool {
	return atomic.LoadInt32(&rs.running) == 1
}

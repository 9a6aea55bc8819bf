package audio

import "sync"

// Callback is a process-wide fd-triggered hook the worker polls alongside
// device and stream wake fds. Registration is append-only except for
// explicit removal via REMOVE_CALLBACK; duplicate (fd, data) registrations
// are collapsed into the existing entry instead of creating a second
// pollfd for the same source.
type Callback struct {
	FD       int
	Data     interface{}
	Enabled  bool
	callback func(data interface{}) error
}

// callbackRegistry holds every registered Callback, in registration order.
type callbackRegistry struct {
	mu        sync.Mutex
	callbacks []*Callback
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{}
}

// add registers fn to run when fd becomes readable, de-duplicated by
// (fd, data): re-registering the same pair just re-enables and replaces
// the function instead of creating a second entry.
func (r *callbackRegistry) add(fd int, data interface{}, fn func(data interface{}) error) *Callback {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.callbacks {
		if cb.FD == fd && cb.Data == data {
			cb.callback = fn
			cb.Enabled = true
			return cb
		}
	}
	cb := &Callback{FD: fd, Data: data, Enabled: true, callback: fn}
	r.callbacks = append(r.callbacks, cb)
	return cb
}

// remove implements REMOVE_CALLBACK: drops the registration for fd.
func (r *callbackRegistry) remove(fd int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, cb := range r.callbacks {
		if cb.FD == fd {
			r.callbacks = append(r.callbacks[:i], r.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

func (r *callbackRegistry) setEnabled(fd int, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.callbacks {
		if cb.FD == fd {
			cb.Enabled = enabled
			return true
		}
	}
	return false
}

// snapshot returns a copy of the currently enabled callbacks for the
// scheduler to build pollfds from; copying avoids holding the lock while
// ppoll blocks.
func (r *callbackRegistry) snapshot() []*Callback {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Callback, 0, len(r.callbacks))
	for _, cb := range r.callbacks {
		if cb.Enabled {
			out = append(out, cb)
		}
	}
	return out
}

// dispatch invokes the callback registered for fd, if any and if enabled.
func (r *callbackRegistry) dispatch(fd int) error {
	r.mu.Lock()
	var target *Callback
	for _, cb := range r.callbacks {
		if cb.FD == fd && cb.Enabled {
			target = cb
			break
		}
	}
	r.mu.Unlock()

	if target == nil {
		return nil
	}
	return target.callback(target.Data)
}

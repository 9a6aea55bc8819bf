//go:build linux

package audio

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// pollSource records what a given pollfd slot represents, so dispatch can
// route a ready fd back to the right handler without a second lookup
// pass.
type pollSource struct {
	fd        int
	isCmd     bool
	callback  *Callback
	dev       iodev.Device
	devStream *DevStream
}

// WakeScheduler drives the ppoll-based event loop: it computes the next
// wake deadline from every device and stream, blocks in ppoll until the
// command fd, a registered callback fd, or a device/stream wake fd is
// ready or the deadline elapses, and dispatches whichever fds came back
// readable.
type WakeScheduler struct {
	cmdFD     int
	callbacks *callbackRegistry
	devices   *devices
	runner    iodev.Runner
	eventLog  *EventLog
	log       *AudioLoggerStandards

	getRemixConverter func() interface{}

	pollfds      []unix.PollFd
	sources      []pollSource
	zeroTimeouts int
	longestWake  time.Duration
	lastWake     time.Time
}

func newWakeScheduler(cmdFD int, callbacks *callbackRegistry, devs *devices, runner iodev.Runner, eventLog *EventLog, log *AudioLoggerStandards, getRemixConverter func() interface{}) *WakeScheduler {
	cfg := GetConfig()
	return &WakeScheduler{
		cmdFD:             cmdFD,
		callbacks:         callbacks,
		devices:           devs,
		runner:            runner,
		eventLog:          eventLog,
		log:               log,
		getRemixConverter: getRemixConverter,
		pollfds:           make([]unix.PollFd, 0, cfg.PollArrayInitialCapacity),
		sources:           make([]pollSource, 0, cfg.PollArrayInitialCapacity),
		lastWake:          now(),
	}
}

// computeNextWake folds the wake ceiling, every output dev-stream's
// next_cb_ts (skipping draining streams with no playback frames left),
// every device's own ShouldWake/WakeTime, and the input aggregator's
// contribution into a single deadline.
func (ws *WakeScheduler) computeNextWake(at time.Time) time.Time {
	cfg := GetConfig()
	deadline := at.Add(cfg.WakeCeiling)

	for _, rec := range ws.devices.outputs.records {
		for _, ds := range rec.streams {
			if ds.stream.Draining() && ds.stream.SHMFrames() <= 0 {
				continue
			}
			if ds.nextCBTS.Before(deadline) {
				deadline = ds.nextCBTS
			}
		}
	}

	for _, list := range []*deviceList{ws.devices.outputs, ws.devices.inputs} {
		for _, rec := range list.records {
			if rec.dev.ShouldWake() {
				if wt := rec.dev.WakeTime(); wt.Before(deadline) {
					deadline = wt
				}
			}
		}
	}

	if ws.runner != nil {
		if newMin, ok := ws.runner.DevIONextInputWake(ws.devices.allInputs(), deadline); ok {
			deadline = newMin
		}
	}

	if deadline.Before(at) {
		deadline = at
	}
	return deadline
}

// buildPollfds rebuilds the pollfd array from scratch: command fd first,
// then every enabled registered callback, then every device/stream wake
// fd. Rebuilding each iteration keeps attach/detach changes trivially
// reflected without incremental pollfd bookkeeping.
func (ws *WakeScheduler) buildPollfds() {
	ws.pollfds = ws.pollfds[:0]
	ws.sources = ws.sources[:0]

	ws.appendFD(ws.cmdFD, pollSource{fd: ws.cmdFD, isCmd: true})

	for _, cb := range ws.callbacks.snapshot() {
		if cb.FD < 0 {
			continue
		}
		ws.appendFD(cb.FD, pollSource{fd: cb.FD, callback: cb})
	}

	for _, list := range []*deviceList{ws.devices.outputs, ws.devices.inputs} {
		for _, rec := range list.records {
			if fd := rec.dev.WakeFD(); fd >= 0 {
				ws.appendFD(fd, pollSource{fd: fd, dev: rec.dev})
			}
			for _, ds := range rec.streams {
				if fd := ds.stream.WakeFD(); fd >= 0 {
					ws.appendFD(fd, pollSource{fd: fd, devStream: ds})
				}
			}
		}
	}

	RecordPollfdCapacity(cap(ws.pollfds))
}

// appendFD grows the backing arrays (doubling) when the initial capacity
// is exceeded, rather than bounding the number of pollable sources.
func (ws *WakeScheduler) appendFD(fd int, src pollSource) {
	if len(ws.pollfds) == cap(ws.pollfds) {
		newCap := cap(ws.pollfds) * 2
		if newCap == 0 {
			newCap = GetConfig().PollArrayInitialCapacity
		}
		grown := make([]unix.PollFd, len(ws.pollfds), newCap)
		copy(grown, ws.pollfds)
		ws.pollfds = grown

		grownSrc := make([]pollSource, len(ws.sources), newCap)
		copy(grownSrc, ws.sources)
		ws.sources = grownSrc
	}
	ws.pollfds = append(ws.pollfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	ws.sources = append(ws.sources, src)
}

// RunOnce executes a single scheduler iteration: rebuild the pollfd set,
// compute the wake deadline, block in ppoll, then dispatch whichever fds
// came back ready. dispatchCommand is called when the command fd is
// readable; it's supplied by the owning AudioThread since command
// handling needs access to state this package's scheduler doesn't own
// directly.
func (ws *WakeScheduler) RunOnce(dispatchCommand func() error) error {
	at := now()
	ws.buildPollfds()
	deadline := ws.computeNextWake(at)
	timeout := deadline.Sub(at)
	if timeout < 0 {
		timeout = 0
	}

	ws.eventLog.Log(EventThreadSleep, int64(timeout/time.Millisecond), 0)

	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	n, err := unix.Ppoll(ws.pollfds, &ts, nil)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return wrapf(ErrPipe, "ppoll: %v", err)
	}

	wokeAt := now()
	gap := wokeAt.Sub(ws.lastWake)
	if gap > ws.longestWake {
		ws.longestWake = gap
	}
	ws.lastWake = wokeAt
	RecordLongestWake(ws.longestWake.Seconds())

	if timeout == 0 {
		ws.zeroTimeouts++
		if ws.zeroTimeouts >= GetConfig().BusyloopThreshold {
			RecordBusyloop()
			ws.log.LogWarning("busyloop detected: consecutive zero-timeout wakes")
			ws.zeroTimeouts = 0
		}
	} else {
		ws.zeroTimeouts = 0
	}

	if n == 0 {
		ws.eventLog.Log(EventThreadWake, 0, 0)
		return nil
	}

	ws.eventLog.Log(EventThreadWake, int64(n), 0)

	for i, pfd := range ws.pollfds {
		if pfd.Revents == 0 {
			continue
		}
		src := ws.sources[i]
		switch {
		case src.isCmd:
			ws.eventLog.Log(EventCommandReceived, 0, 0)
			if err := dispatchCommand(); err != nil {
				return err
			}
		case src.callback != nil:
			if err := ws.callbacks.dispatch(src.fd); err != nil {
				ws.log.LogWarningWithError(err, "callback failed")
			}
		case src.devStream != nil:
			ws.eventLog.Log(EventIODevCallbackFired, int64(src.devStream.stream.ID()), 0)
		case src.dev != nil:
			ws.eventLog.Log(EventIODevCallbackFired, int64(src.dev.Index()), 0)
		}
	}

	if ws.runner != nil {
		var remixConverter interface{}
		if ws.getRemixConverter != nil {
			remixConverter = ws.getRemixConverter()
		}
		if err := ws.runner.DevIORun(ws.devices.allOutputs(), ws.devices.allInputs(), remixConverter); err != nil {
			ws.log.LogWarningWithError(err, "device I/O run failed")
		}
	}

	return nil
}

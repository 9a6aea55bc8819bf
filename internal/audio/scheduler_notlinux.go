//go:build !linux

package audio

import (
	"time"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// WakeScheduler outside Linux falls back to a plain timer-based loop: no
// ppoll, so registered callback/device/stream fds are not polled directly.
// This keeps the package importable for development off-target; the
// realtime scheduling guarantees only hold on Linux.
type WakeScheduler struct {
	cmdFD     int
	callbacks *callbackRegistry
	devices   *devices
	runner    iodev.Runner
	eventLog  *EventLog
	log       *AudioLoggerStandards

	getRemixConverter func() interface{}
}

func newWakeScheduler(cmdFD int, callbacks *callbackRegistry, devs *devices, runner iodev.Runner, eventLog *EventLog, log *AudioLoggerStandards, getRemixConverter func() interface{}) *WakeScheduler {
	return &WakeScheduler{
		cmdFD:             cmdFD,
		callbacks:         callbacks,
		devices:           devs,
		runner:            runner,
		eventLog:          eventLog,
		log:               log,
		getRemixConverter: getRemixConverter,
	}
}

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
	return deadline
}

// RunOnce sleeps until the next wake (at most 50ms), then reads one
// command from the command pipe, blocking until one arrives, since the
// non-Linux build has no ppoll equivalent wired in. It does not run device
// I/O and does not watch callback, device or stream fds.
func (ws *WakeScheduler) RunOnce(dispatchCommand func() error) error {
	at := now()
	deadline := ws.computeNextWake(at)
	timeout := deadline.Sub(at)
	if timeout < 0 {
		timeout = 0
	}
	if timeout > 50*time.Millisecond {
		timeout = 50 * time.Millisecond
	}
	time.Sleep(timeout)
	ws.eventLog.Log(EventThreadWake, 0, 0)
	return dispatchCommand()
}

//go:build linux

package audio

import (
	"runtime"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
)

// SchedParam represents scheduling parameters for Linux.
type SchedParam struct {
	Priority int32
}

// getSchedulingPolicies returns scheduling policies from centralized config.
func getSchedulingPolicies() (schedNormal, schedFIFO, schedRR int) {
	config := GetConfig()
	return config.SchedNormal, config.SchedFIFO, config.SchedRR
}

// PriorityScheduler requests realtime scheduling for the audio worker
// goroutine. Best-effort: a refused realtime policy falls back to a nice
// value; a failure that remains is logged and returned, and the worker
// treats it as non-fatal.
type PriorityScheduler struct {
	logger  zerolog.Logger
	enabled bool
}

// NewPriorityScheduler creates a new priority scheduler.
func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{
		logger:  GetDefaultLogger().With().Str("component", "priority-scheduler").Logger(),
		enabled: true,
	}
}

// SetThreadPriority sets the priority of the current OS thread.
func (ps *PriorityScheduler) SetThreadPriority(priority int, policy int) error {
	if !ps.enabled {
		return nil
	}

	// Lock to OS thread to ensure we're setting priority for the right thread.
	runtime.LockOSThread()

	tid := syscall.Gettid()
	param := &SchedParam{Priority: int32(priority)}

	_, _, errno := syscall.Syscall(syscall.SYS_SCHED_SETSCHEDULER,
		uintptr(tid),
		uintptr(policy),
		uintptr(unsafe.Pointer(param)))

	if errno != 0 {
		schedNormal, _, _ := getSchedulingPolicies()
		if policy != schedNormal {
			ps.logger.Warn().Int("errno", int(errno)).Msg("failed to set realtime priority, falling back to nice")
			return ps.setNicePriority(priority)
		}
		return errno
	}

	ps.logger.Debug().Int("tid", tid).Int("priority", priority).Int("policy", policy).Msg("thread priority set")
	return nil
}

// setNicePriority sets a nice value as fallback when SCHED_FIFO is
// unavailable (e.g. missing CAP_SYS_NICE).
func (ps *PriorityScheduler) setNicePriority(rtPriority int) error {
	niceValue := (40 - rtPriority) / 4
	if niceValue < GetConfig().MinNiceValue {
		niceValue = GetConfig().MinNiceValue
	}
	if niceValue > GetConfig().MaxNiceValue {
		niceValue = GetConfig().MaxNiceValue
	}

	err := syscall.Setpriority(syscall.PRIO_PROCESS, 0, niceValue)
	if err != nil {
		ps.logger.Warn().Err(err).Int("nice", niceValue).Msg("failed to set nice priority")
		return err
	}

	ps.logger.Debug().Int("nice", niceValue).Msg("nice priority set as fallback")
	return nil
}

// SetAudioThreadPriority requests SCHED_FIFO at the configured audio
// thread priority for the calling goroutine's OS thread.
func (ps *PriorityScheduler) SetAudioThreadPriority() error {
	_, schedFIFO, _ := getSchedulingPolicies()
	return ps.SetThreadPriority(GetConfig().AudioThreadPriority, schedFIFO)
}

// ResetPriority restores normal (SCHED_OTHER) scheduling.
func (ps *PriorityScheduler) ResetPriority() error {
	schedNormal, _, _ := getSchedulingPolicies()
	return ps.SetThreadPriority(GetConfig().NormalPriority, schedNormal)
}

// Disable disables priority scheduling (useful for testing or fallback).
func (ps *PriorityScheduler) Disable() {
	ps.enabled = false
	ps.logger.Info().Msg("priority scheduling disabled")
}

// Enable enables priority scheduling.
func (ps *PriorityScheduler) Enable() {
	ps.enabled = true
	ps.logger.Info().Msg("priority scheduling enabled")
}

var globalPriorityScheduler *PriorityScheduler

// GetPriorityScheduler returns the global priority scheduler instance.
func GetPriorityScheduler() *PriorityScheduler {
	if globalPriorityScheduler == nil {
		globalPriorityScheduler = NewPriorityScheduler()
	}
	return globalPriorityScheduler
}

// SetAudioThreadPriority is a convenience function used by the worker at
// Start.
func SetAudioThreadPriority() error {
	return GetPriorityScheduler().SetAudioThreadPriority()
}

// ResetThreadPriority is a convenience function called by AudioThread.Stop
// after the worker has exited; it applies to the calling goroutine's OS
// thread.
func ResetThreadPriority() error {
	return GetPriorityScheduler().ResetPriority()
}

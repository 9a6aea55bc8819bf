//go:build !linux

package audio

import "github.com/rs/zerolog"

// PriorityScheduler is a no-op outside Linux: SCHED_FIFO/nice are Linux
// scheduler concepts, and ppoll itself is only wired for Linux (see
// scheduler_notlinux.go). Requesting realtime priority here always
// succeeds trivially, matching the "best-effort, never fatal" contract.
type PriorityScheduler struct {
	logger  zerolog.Logger
	enabled bool
}

func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{
		logger:  GetDefaultLogger().With().Str("component", "priority-scheduler").Logger(),
		enabled: true,
	}
}

func (ps *PriorityScheduler) SetAudioThreadPriority() error { return nil }
func (ps *PriorityScheduler) ResetPriority() error           { return nil }
func (ps *PriorityScheduler) Disable()                       { ps.enabled = false }
func (ps *PriorityScheduler) Enable()                         { ps.enabled = true }

var globalPriorityScheduler *PriorityScheduler

func GetPriorityScheduler() *PriorityScheduler {
	if globalPriorityScheduler == nil {
		globalPriorityScheduler = NewPriorityScheduler()
	}
	return globalPriorityScheduler
}

func SetAudioThreadPriority() error { return GetPriorityScheduler().SetAudioThreadPriority() }
func ResetThreadPriority() error    { return GetPriorityScheduler().ResetPriority() }

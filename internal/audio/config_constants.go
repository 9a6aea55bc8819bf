package audio

import "time"

// AudioThreadConfig centralizes all tunable values used by the scheduler.
// Each constant documents its purpose, where it's consumed, and the effect
// of changing it, following the same convention the rest of this package
// uses for runtime-tunable knobs.
type AudioThreadConfig struct {
	// PollArrayInitialCapacity is the number of pollfd slots the scheduler
	// allocates up front.
	// Used in: scheduler.go when building the pollfd set.
	// Impact: too small causes frequent reallocation/doubling; too large
	// wastes a negligible amount of memory. Default 32 covers a handful of
	// devices plus a handful of streams per device.
	PollArrayInitialCapacity int

	// WakeCeiling bounds how long ppoll may block when nothing else would
	// wake the thread, so periodic maintenance still happens when idle.
	// Used in: scheduler.go computeNextWake.
	// Default 20s: an upper bound on an idle wait, not a device refill
	// deadline; devices and streams set their own earlier wake times.
	WakeCeiling time.Duration

	// BusyloopThreshold is the number of consecutive zero-timeout ppoll
	// iterations that must occur before the busyloop monitor fires.
	// Used in: scheduler.go.
	// Default 2: a single zero-timeout wake is normal (a device at exactly
	// its deadline); two in a row means nothing is actually sleeping.
	BusyloopThreshold int

	// MaxMessageSize bounds the read buffer used by the message codec.
	// Used in: codec.go ReadMessage.
	// Default 256 bytes is large enough for every defined command payload
	// plus header.
	MaxMessageSize int

	// MaxDebugDevices caps the number of device records DUMP_THREAD_INFO
	// will copy into the caller's snapshot buffer.
	// Used in: debug.go.
	MaxDebugDevices int

	// MaxDebugStreams caps the number of stream records DUMP_THREAD_INFO
	// will copy into the caller's snapshot buffer.
	// Used in: debug.go.
	MaxDebugStreams int

	// EventLogCapacity is the number of records the event ring buffer
	// holds before wrapping.
	// Used in: eventlog.go.
	EventLogCapacity int

	// CommandChannelTimeout is a configuration slot for a ceiling on how
	// long a controller waits for a command response. Nothing reads it:
	// commands.go post always blocks until the worker responds, whatever
	// this is set to.
	CommandChannelTimeout time.Duration

	// Scheduling policy/priority constants, mirrored from the Linux
	// sched(7) values so priority_scheduler.go doesn't need to import
	// golang.org/x/sys/unix just for these three integers.
	SchedNormal int
	SchedFIFO   int
	SchedRR     int

	// AudioThreadPriority is the SCHED_FIFO priority requested for the
	// worker goroutine at Start. Best-effort; failure falls back to a
	// nice value and is logged, never fatal.
	AudioThreadPriority int

	// NormalPriority is the priority restored on ResetPriority.
	NormalPriority int

	// MinNiceValue/MaxNiceValue bound the nice() fallback used when
	// SCHED_FIFO is unavailable (e.g. missing CAP_SYS_NICE).
	MinNiceValue int
	MaxNiceValue int
}

// DefaultAudioThreadConfig returns the default configuration constants.
// These values match the behavior described for the reference scheduler
// this package implements; they are conservative defaults suitable for an
// embedded Linux target.
func DefaultAudioThreadConfig() *AudioThreadConfig {
	return &AudioThreadConfig{
		PollArrayInitialCapacity: 32,
		WakeCeiling:              20 * time.Second,
		BusyloopThreshold:        2,
		MaxMessageSize:           256,
		MaxDebugDevices:          10,
		MaxDebugStreams:          32,
		EventLogCapacity:         1024,
		CommandChannelTimeout:    0, // 0 = no timeout, matches spec's blocking post-and-wait

		SchedNormal: 0, // SCHED_OTHER
		SchedFIFO:   1, // SCHED_FIFO
		SchedRR:     2, // SCHED_RR

		AudioThreadPriority: 12,
		NormalPriority:      0,
		MinNiceValue:        -20,
		MaxNiceValue:        19,
	}
}

// Global configuration instance.
var audioThreadConfigInstance = DefaultAudioThreadConfig()

// UpdateConfig allows runtime configuration updates, e.g. from tests that
// want a shorter WakeCeiling or a tiny PollArrayInitialCapacity to exercise
// the doubling path.
func UpdateConfig(newConfig *AudioThreadConfig) {
	audioThreadConfigInstance = newConfig
}

// GetConfig returns the current configuration.
func GetConfig() *AudioThreadConfig {
	return audioThreadConfigInstance
}

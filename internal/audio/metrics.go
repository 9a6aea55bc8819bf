package audio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	longestWakeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiothread_longest_wake_seconds",
			Help: "Longest interval between consecutive wakes observed since the scheduler started; debug dumps do not reset it",
		},
	)

	openDeviceCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiothread_open_device_count",
			Help: "Number of currently open devices",
		},
		[]string{"direction"},
	)

	busyloopTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiothread_busyloop_total",
			Help: "Total number of times the busyloop monitor fired",
		},
	)

	commandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiothread_command_total",
			Help: "Total number of commands processed, by command name",
		},
		[]string{"command"},
	)

	attachRollbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiothread_attach_rollback_total",
			Help: "Total number of ADD_STREAM calls that rolled back a partial attach",
		},
	)

	drainReapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiothread_drain_reaped_total",
			Help: "Total number of streams reaped by DRAIN_STREAM at zero remaining frames",
		},
	)

	pollfdCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiothread_pollfd_capacity",
			Help: "Current capacity of the scheduler's pollfd array",
		},
	)
)

// RecordLongestWake updates the longest-wake gauge, in seconds.
func RecordLongestWake(seconds float64) {
	longestWakeSeconds.Set(seconds)
}

// RecordOpenDeviceCount updates the open-device gauge for one direction.
func RecordOpenDeviceCount(direction string, count int) {
	openDeviceCount.WithLabelValues(direction).Set(float64(count))
}

// RecordBusyloop increments the busyloop counter.
func RecordBusyloop() {
	busyloopTotal.Inc()
}

// RecordCommand increments the per-command counter.
func RecordCommand(command string) {
	commandTotal.WithLabelValues(command).Inc()
}

// RecordAttachRollback increments the attach-rollback counter.
func RecordAttachRollback() {
	attachRollbackTotal.Inc()
}

// RecordDrainReaped increments the drain-reap counter.
func RecordDrainReaped() {
	drainReapedTotal.Inc()
}

// RecordPollfdCapacity updates the pollfd-capacity gauge.
func RecordPollfdCapacity(capacity int) {
	pollfdCapacity.Set(float64(capacity))
}

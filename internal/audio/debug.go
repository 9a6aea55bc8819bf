package audio

import (
	"time"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// DebugDevInfo is one device's entry in a ThreadSnapshot.
type DebugDevInfo struct {
	Index         iodev.DeviceIndex
	Name          string
	Direction     iodev.Direction
	BufferFrames  int
	NumStreams    int
	LongestWake   time.Duration
}

// DebugStreamInfo is one stream's entry in a ThreadSnapshot.
type DebugStreamInfo struct {
	StreamID    iodev.StreamID
	DeviceIndex iodev.DeviceIndex
	Direction   iodev.Direction
	Draining    bool
	NextCBTS    time.Time
}

// ThreadSnapshot is the DUMP_THREAD_INFO payload: a bounded copy of the
// worker's device/stream state plus a copy of the event log, built while
// the worker is between scheduler iterations and handed back to the
// caller through the command channel's pending slot.
type ThreadSnapshot struct {
	Devices   []DebugDevInfo
	Streams   []DebugStreamInfo
	Events    []EventRecord
	Timestamp time.Time
}

// buildSnapshot implements DUMP_THREAD_INFO: copies up to MaxDebugDevices
// device records and MaxDebugStreams stream records into a fresh
// ThreadSnapshot, and a copy of the event log.
//
// longestWake starts at zero and nothing in this function sets it to
// another value, so every DebugDevInfo.LongestWake in the snapshot is zero.
// The scheduler's own longest-wake figure is not copied into the snapshot
// and is not reset by a dump, and DebugStreamInfo has no longest-wake
// field. The zeroing inside the per-stream loop follows the placement in
// the reference implementation's append_stream_dump_info and has no
// effect here.
func (d *devices) buildSnapshot(events *EventLog) *ThreadSnapshot {
	cfg := GetConfig()
	snap := &ThreadSnapshot{Timestamp: now()}

	lists := []*deviceList{d.outputs, d.inputs}

	var longestWake time.Duration
	for _, list := range lists {
		for _, rec := range list.records {
			if len(snap.Devices) >= cfg.MaxDebugDevices {
				break
			}
			snap.Devices = append(snap.Devices, DebugDevInfo{
				Index:        rec.dev.Index(),
				Name:         rec.dev.Name(),
				Direction:    rec.dev.Direction(),
				BufferFrames: rec.dev.BufferFrames(),
				NumStreams:   len(rec.streams),
				LongestWake:  longestWake,
			})

			for _, ds := range rec.streams {
				if len(snap.Streams) >= cfg.MaxDebugStreams {
					break
				}
				snap.Streams = append(snap.Streams, DebugStreamInfo{
					StreamID:    ds.stream.ID(),
					DeviceIndex: rec.dev.Index(),
					Direction:   rec.dev.Direction(),
					Draining:    ds.stream.Draining(),
					NextCBTS:    ds.nextCBTS,
				})
				longestWake = 0
			}
		}
	}

	if events != nil {
		snap.Events = events.Snapshot()
	}
	return snap
}

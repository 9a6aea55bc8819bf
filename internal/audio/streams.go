package audio

import (
	"time"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// handleAddStream implements ADD_STREAM: attaches stream to every device in
// devs, creating one DevStream binding per device. If any device's
// AddStream collaborator call fails, every binding created so far for this
// call is rolled back (RemoveStream + list removal) before the error is
// returned, so a partial attach never leaves a stream bound to only some
// of the requested devices.
func (d *devices) handleAddStream(stream iodev.Stream, devs []iodev.Device, now time.Time) error {
	created := make([]*OpenDeviceRecord, 0, len(devs))

	rollback := func() {
		for _, rec := range created {
			rec.dev.RemoveStream(stream)
			rec.removeStream(stream)
		}
	}

	for _, dev := range devs {
		list := d.listFor(dev.Direction())
		rec := list.find(dev.Index())
		if rec == nil {
			rollback()
			return wrapf(ErrInvalid, "device %d not open", dev.Index())
		}
		if rec.findStream(stream) != nil {
			// Already attached to this device; idempotent no-op for
			// this one, matching the reference's "stream already in
			// dev's list" skip.
			continue
		}
		if err := dev.AddStream(stream, dev.Format()); err != nil {
			rollback()
			return wrapf(ErrNoMem, "device %d refused stream %d: %v", dev.Index(), stream.ID(), err)
		}

		ds := &DevStream{stream: stream, dev: dev}
		ds.nextCBTS = initCBTS(rec, dev, stream, now)
		ds.initialized = true

		if dev.Direction() == iodev.Input {
			if err := alignInputOffset(dev, rec, stream); err != nil {
				dev.RemoveStream(stream)
				rollback()
				return wrapf(ErrNoMem, "device %d stream %d offset alignment failed: %v", dev.Index(), stream.ID(), err)
			}
		}

		rec.appendStream(ds)
		created = append(created, rec)
	}

	d.log.LogDebugWithFields("stream attached", map[string]interface{}{
		"stream_id":   uint64(stream.ID()),
		"device_count": len(devs),
	})
	return nil
}

// initCBTS computes the initial next_cb_ts for a newly attached
// dev-stream. An output device that already has streams attached aligns
// the new stream to the earliest next_cb_ts among its existing streams,
// so the new stream is serviced on the same schedule as its siblings
// rather than drifting in on its own cadence; an output device with no
// streams yet, and any input stream, anchor to now.
func initCBTS(rec *OpenDeviceRecord, dev iodev.Device, stream iodev.Stream, now time.Time) time.Time {
	if dev.Direction() == iodev.Output {
		earliest := time.Time{}
		for _, ds := range rec.streams {
			if earliest.IsZero() || ds.nextCBTS.Before(earliest) {
				earliest = ds.nextCBTS
			}
		}
		if !earliest.IsZero() {
			return earliest
		}
		return now
	}
	return now
}

// alignInputOffset implements the input attach alignment rule: the first
// input stream attached to a device flushes any stale buffered capture
// frames so a fresh multi-stream read starts aligned; every subsequent
// stream instead copies the device's existing first stream's offset,
// clamped to the new stream's own callback threshold, so it doesn't see
// frames the first stream has already consumed.
func alignInputOffset(dev iodev.Device, rec *OpenDeviceRecord, stream iodev.Stream) error {
	if len(rec.streams) == 0 {
		_, err := dev.FlushCapture()
		return err
	}

	first := rec.streams[0]
	offset, err := dev.StreamOffset(first.stream)
	if err != nil {
		return err
	}
	if threshold := stream.CallbackThreshold(); offset > threshold {
		offset = threshold
	}
	return dev.SetStreamOffset(stream, offset)
}

// handleDisconnectStream implements DISCONNECT_STREAM: detaches stream
// from every device currently holding it (or, if devs is non-empty, only
// from those devices), regardless of whether the detach is part of a
// normal teardown or a drain completion. Always returns nil, even if
// stream wasn't attached to any matching device.
func (d *devices) handleDisconnectStream(stream iodev.Stream, devs []iodev.Device) error {
	lists := []*deviceList{d.outputs, d.inputs}
	detached := 0

	matches := func(rec *OpenDeviceRecord) bool {
		if len(devs) == 0 {
			return true
		}
		for _, want := range devs {
			if want.Index() == rec.dev.Index() {
				return true
			}
		}
		return false
	}

	for _, list := range lists {
		for _, rec := range list.records {
			if !matches(rec) {
				continue
			}
			if rec.findStream(stream) == nil {
				continue
			}
			if err := rec.dev.RemoveStream(stream); err != nil {
				d.log.LogWarningWithError(err, "device refused stream removal")
			}
			rec.removeStream(stream)
			detached++
		}
	}

	d.log.LogDebugWithFields("stream detached", map[string]interface{}{
		"stream_id":        uint64(stream.ID()),
		"devices_detached": detached,
	})
	return nil
}

// findDevStream looks up the dev-stream binding for (dev, stream) in the
// device list for dev's direction.
func (d *devices) findDevStream(dev iodev.Device, stream iodev.Stream) *DevStream {
	list := d.listFor(dev.Direction())
	rec := list.find(dev.Index())
	if rec == nil {
		return nil
	}
	return rec.findStream(stream)
}

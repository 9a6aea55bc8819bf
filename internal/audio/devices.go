package audio

import (
	"time"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// DevStream is the scheduler-owned binding between one open device and one
// attached stream. It is kept here rather than on the iodev.Device
// implementation because next_cb_ts bookkeeping and wake-time computation
// are scheduling decisions, not device-driver state.
type DevStream struct {
	stream iodev.Stream
	dev    iodev.Device

	// nextCBTS is the next time this stream's client callback is
	// expected to need service; it drives the wake-time computation.
	nextCBTS time.Time

	// initialized is set by ADD_STREAM once it has seeded nextCBTS.
	initialized bool
}

func (ds *DevStream) Stream() iodev.Stream { return ds.stream }
func (ds *DevStream) Device() iodev.Device { return ds.dev }

// NextCBTS returns the time this stream's callback is next due.
func (ds *DevStream) NextCBTS() time.Time { return ds.nextCBTS }

// UpdateCBTS advances nextCBTS by one callback period, the way the worker
// does after servicing a stream's callback.
func (ds *DevStream) UpdateCBTS(now time.Time) {
	period := time.Duration(0)
	if rate := ds.stream.Format().FrameRate; rate > 0 {
		period = time.Duration(ds.stream.CallbackThreshold()) * time.Second / time.Duration(rate)
	}
	if period <= 0 {
		period = time.Millisecond
	}
	next := ds.nextCBTS.Add(period)
	if next.Before(now) {
		next = now.Add(period)
	}
	ds.nextCBTS = next
}

// OpenDeviceRecord wraps one open iodev.Device with the scheduler state
// attached to it: the ordered list of dev-streams bound to it, in
// attach order (matches spec.md §3's iteration-order invariant).
type OpenDeviceRecord struct {
	dev     iodev.Device
	streams []*DevStream
}

func (r *OpenDeviceRecord) Device() iodev.Device      { return r.dev }
func (r *OpenDeviceRecord) Streams() []*DevStream      { return r.streams }

func (r *OpenDeviceRecord) findStream(s iodev.Stream) *DevStream {
	for _, ds := range r.streams {
		if ds.stream.ID() == s.ID() {
			return ds
		}
	}
	return nil
}

func (r *OpenDeviceRecord) appendStream(ds *DevStream) {
	r.streams = append(r.streams, ds)
}

func (r *OpenDeviceRecord) removeStream(s iodev.Stream) bool {
	for i, ds := range r.streams {
		if ds.stream.ID() == s.ID() {
			r.streams = append(r.streams[:i], r.streams[i+1:]...)
			return true
		}
	}
	return false
}

// deviceList is the per-direction ordered set of open devices, matching
// the reference implementation's pair of singly-linked device lists (one
// for output, one for input).
type deviceList struct {
	direction iodev.Direction
	records   []*OpenDeviceRecord
}

func newDeviceList(dir iodev.Direction) *deviceList {
	return &deviceList{direction: dir}
}

func (dl *deviceList) find(idx iodev.DeviceIndex) *OpenDeviceRecord {
	for _, r := range dl.records {
		if r.dev.Index() == idx {
			return r
		}
	}
	return nil
}

func (dl *deviceList) contains(dev iodev.Device) bool {
	return dl.find(dev.Index()) != nil
}

func (dl *deviceList) add(rec *OpenDeviceRecord) {
	dl.records = append(dl.records, rec)
}

func (dl *deviceList) remove(idx iodev.DeviceIndex) *OpenDeviceRecord {
	for i, r := range dl.records {
		if r.dev.Index() == idx {
			dl.records = append(dl.records[:i], dl.records[i+1:]...)
			return r
		}
	}
	return nil
}

// devices is the scheduler's full device-side state: two deviceLists (one
// per direction) plus the logger used by every handler below.
type devices struct {
	outputs *deviceList
	inputs  *deviceList
	log     *AudioLoggerStandards
}

func newDevices(log *AudioLoggerStandards) *devices {
	return &devices{
		outputs: newDeviceList(iodev.Output),
		inputs:  newDeviceList(iodev.Input),
		log:     log,
	}
}

func (d *devices) listFor(dir iodev.Direction) *deviceList {
	if dir == iodev.Input {
		return d.inputs
	}
	return d.outputs
}

// handleAddOpenDevice implements ADD_OPEN_DEV: registers a newly opened
// device, pre-filling output devices with silence so hardware doesn't
// immediately starve before the first real stream attaches.
func (d *devices) handleAddOpenDevice(dev iodev.Device) error {
	list := d.listFor(dev.Direction())
	if list.contains(dev) {
		return wrapf(ErrExist, "device %d already open", dev.Index())
	}
	if dev.Direction() == iodev.Output {
		if err := dev.FillZeros(dev.MinBufferLevel()); err != nil {
			d.log.LogWarningWithError(err, "initial silence fill failed")
		}
	}
	list.add(&OpenDeviceRecord{dev: dev})
	d.log.LogStateTransition("closed", "open", dev.Name())
	return nil
}

// handleRemoveOpenDevice implements RM_OPEN_DEV: unknown device index is
// the only error case (-EINVAL); a device that still has attached streams
// is simply unlinked along with them rather than rejected, matching the
// reference implementation.
func (d *devices) handleRemoveOpenDevice(dev iodev.Device) error {
	list := d.listFor(dev.Direction())
	rec := list.find(dev.Index())
	if rec == nil {
		return wrapf(ErrInvalid, "device %d not open", dev.Index())
	}
	for _, ds := range rec.streams {
		rec.dev.RemoveStream(ds.stream)
	}
	list.remove(dev.Index())
	d.log.LogStateTransition("open", "closed", dev.Name())
	return nil
}

// handleIsDevOpen implements IS_DEV_OPEN.
func (d *devices) handleIsDevOpen(dir iodev.Direction, idx iodev.DeviceIndex) bool {
	return d.listFor(dir).find(idx) != nil
}

// handleStartRamp implements DEV_START_RAMP.
func (d *devices) handleStartRamp(dev iodev.Device, req iodev.RampRequest) error {
	list := d.listFor(dev.Direction())
	if list.find(dev.Index()) == nil {
		return wrapf(ErrInvalid, "device %d not open", dev.Index())
	}
	return dev.StartRamp(req)
}

// allOutputs/allInputs return the raw iodev.Device slices the Runner and
// wake-scheduler need, in attach order.
func (d *devices) allOutputs() []iodev.Device {
	out := make([]iodev.Device, 0, len(d.outputs.records))
	for _, r := range d.outputs.records {
		out = append(out, r.dev)
	}
	return out
}

func (d *devices) allInputs() []iodev.Device {
	out := make([]iodev.Device, 0, len(d.inputs.records))
	for _, r := range d.inputs.records {
		out = append(out, r.dev)
	}
	return out
}

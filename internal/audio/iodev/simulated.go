package iodev

import (
	"os"
	"sync"
	"time"
)

// SimulatedDevice is an in-memory Device used by tests and the demo
// command: it tracks buffered frames and a wake deadline without touching
// any real hardware.
type SimulatedDevice struct {
	mu sync.Mutex

	index     DeviceIndex
	name      string
	direction Direction
	format    Format

	bufferFrames int
	minBuffer    int
	minCB        int
	maxCB        int

	open        bool
	streams     map[StreamID]Stream
	offsets     map[StreamID]int
	underrun    int
	severe      int
	highWater   int
	rateRatio   float64

	wakeAt time.Time
	wakeFD int

	flushCaptureCalls int

	wakeR, wakeW *os.File
}

func NewSimulatedDevice(index DeviceIndex, name string, dir Direction, format Format, bufferFrames int) *SimulatedDevice {
	r, w, err := os.Pipe()
	wakeFD := -1
	if err == nil {
		wakeFD = int(r.Fd())
	}
	return &SimulatedDevice{
		index:        index,
		name:         name,
		direction:    dir,
		format:       format,
		bufferFrames: bufferFrames,
		minBuffer:    bufferFrames / 4,
		minCB:        bufferFrames / 8,
		maxCB:        bufferFrames,
		open:         true,
		streams:      make(map[StreamID]Stream),
		offsets:      make(map[StreamID]int),
		rateRatio:    1.0,
		wakeFD:       wakeFD,
		wakeR:        r,
		wakeW:        w,
	}
}

func (d *SimulatedDevice) Index() DeviceIndex     { return d.index }
func (d *SimulatedDevice) Name() string            { return d.name }
func (d *SimulatedDevice) Direction() Direction     { return d.direction }
func (d *SimulatedDevice) Format() Format           { return d.format }
func (d *SimulatedDevice) BufferFrames() int        { return d.bufferFrames }
func (d *SimulatedDevice) MinBufferLevel() int      { return d.minBuffer }
func (d *SimulatedDevice) MinCallbackThreshold() int { return d.minCB }
func (d *SimulatedDevice) MaxCallbackThreshold() int { return d.maxCB }

func (d *SimulatedDevice) FillZeros(frames int) error {
	return nil
}

func (d *SimulatedDevice) FlushCapture() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushCaptureCalls++
	return 0, nil
}

// FlushCaptureCalls reports how many times FlushCapture has been called.
func (d *SimulatedDevice) FlushCaptureCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushCaptureCalls
}

func (d *SimulatedDevice) AddStream(s Stream, devFormat Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streams[s.ID()] = s
	d.offsets[s.ID()] = 0
	return nil
}

func (d *SimulatedDevice) RemoveStream(s Stream) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.streams, s.ID())
	delete(d.offsets, s.ID())
	return nil
}

func (d *SimulatedDevice) IsOpen() bool { return d.open }

func (d *SimulatedDevice) StartRamp(req RampRequest) error { return nil }

func (d *SimulatedDevice) ShouldWake() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.wakeAt.IsZero()
}

func (d *SimulatedDevice) WakeTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wakeAt
}

// SetWakeTime lets tests arm a device-level wake deadline.
func (d *SimulatedDevice) SetWakeTime(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wakeAt = t
}

func (d *SimulatedDevice) Underruns() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.underrun, d.severe
}

func (d *SimulatedDevice) HighWaterMark() int { return d.highWater }

func (d *SimulatedDevice) EstimatedRateRatio() float64 { return d.rateRatio }

func (d *SimulatedDevice) StreamOffset(s Stream) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offsets[s.ID()], nil
}

func (d *SimulatedDevice) SetStreamOffset(s Stream, frames int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offsets[s.ID()] = frames
	return nil
}

func (d *SimulatedDevice) WakeFD() int { return d.wakeFD }

// Close releases the pipe backing WakeFD.
func (d *SimulatedDevice) Close() {
	if d.wakeR != nil {
		d.wakeR.Close()
	}
	if d.wakeW != nil {
		d.wakeW.Close()
	}
}

// SimulatedStream is an in-memory Stream used by tests and the demo
// command.
type SimulatedStream struct {
	mu sync.Mutex

	id        StreamID
	direction Direction
	format    Format

	bufferFrames int
	cbThreshold  int
	shmFrames    int
	draining     bool
	overruns     int
	longestFetch time.Duration
	apm          APMHandle

	wakeFD       int
	wakeR, wakeW *os.File
}

func NewSimulatedStream(id StreamID, dir Direction, format Format, bufferFrames, cbThreshold int) *SimulatedStream {
	r, w, err := os.Pipe()
	wakeFD := -1
	if err == nil {
		wakeFD = int(r.Fd())
	}
	return &SimulatedStream{
		id:           id,
		direction:    dir,
		format:       format,
		bufferFrames: bufferFrames,
		cbThreshold:  cbThreshold,
		wakeFD:       wakeFD,
		wakeR:        r,
		wakeW:        w,
	}
}

func (s *SimulatedStream) ID() StreamID         { return s.id }
func (s *SimulatedStream) Direction() Direction { return s.direction }
func (s *SimulatedStream) Format() Format       { return s.format }
func (s *SimulatedStream) BufferFrames() int    { return s.bufferFrames }
func (s *SimulatedStream) CallbackThreshold() int { return s.cbThreshold }

func (s *SimulatedStream) SHMFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shmFrames
}

// SetSHMFrames lets tests set the number of frames currently resident in
// shared memory, e.g. to exercise the drain-reap path with 0.
func (s *SimulatedStream) SetSHMFrames(frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shmFrames = frames
}

func (s *SimulatedStream) SetDraining(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draining = v
}

func (s *SimulatedStream) Draining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

func (s *SimulatedStream) LongestFetchInterval() time.Duration { return s.longestFetch }
func (s *SimulatedStream) Overruns() int                        { return s.overruns }
func (s *SimulatedStream) APM() APMHandle                       { return s.apm }
func (s *SimulatedStream) WakeFD() int                          { return s.wakeFD }

// Close releases the pipe backing WakeFD.
func (s *SimulatedStream) Close() {
	if s.wakeR != nil {
		s.wakeR.Close()
	}
	if s.wakeW != nil {
		s.wakeW.Close()
	}
}

// SimulatedRunner is a no-op Runner: it records how many times it was
// invoked instead of actually mixing samples.
type SimulatedRunner struct {
	mu       sync.Mutex
	runCount int
}

func NewSimulatedRunner() *SimulatedRunner { return &SimulatedRunner{} }

func (r *SimulatedRunner) DevIORun(outputs, inputs []Device, remixConverter interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runCount++
	return nil
}

func (r *SimulatedRunner) DevIONextInputWake(inputs []Device, minTS time.Time) (time.Time, bool) {
	if len(inputs) == 0 {
		return minTS, false
	}
	return minTS, false
}

// RunCount reports how many times DevIORun has been called.
func (r *SimulatedRunner) RunCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runCount
}

// Package iodev defines the opaque device and stream handle interfaces the
// wake scheduler treats as external collaborators: sample mixing, format
// conversion, APM/AEC processing, and the actual hardware drivers live
// behind these interfaces and are out of scope for the scheduler itself.
package iodev

import "time"

// Direction is the data direction of a device or stream.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Format describes the external (hardware-facing) PCM layout of a device
// or stream.
type Format struct {
	FrameRate   int
	NumChannels int
	Layout      int32 // channel layout bitmask, opaque to the scheduler
}

// RampRequest is the volume-envelope request passed to DEV_START_RAMP.
type RampRequest int

const (
	RampRequestUp RampRequest = iota
	RampRequestDown
	RampRequestUpStartPlayback
)

// APMHandle is an opaque audio-processing-module handle (echo
// cancellation etc.); the scheduler never calls into it. AEC_DUMP only
// checks whether a stream carries one.
type APMHandle interface{}

// StreamID is the stable identifier a stream carries for its lifetime.
type StreamID uint64

// DeviceIndex is the stable integer index assigned to a device when it was
// created by the collaborator that owns hardware enumeration.
type DeviceIndex uint32

// Device is the opaque hardware-endpoint handle the scheduler drives. All
// methods are called only from the audio worker goroutine.
type Device interface {
	Index() DeviceIndex
	Name() string
	Direction() Direction
	Format() Format

	BufferFrames() int
	MinBufferLevel() int
	MinCallbackThreshold() int
	MaxCallbackThreshold() int

	// FillZeros pre-fills the hardware buffer with up to frames of
	// silence. Used when a device is first opened so hardware doesn't
	// immediately demand a refill.
	FillZeros(frames int) error

	// FlushCapture discards any buffered capture samples so a fresh
	// multi-device read starts aligned. Returns the number of frames
	// flushed, or an error.
	FlushCapture() (int, error)

	// AddStream/RemoveStream notify the device of a stream binding
	// change so it can include the stream in its own I/O loop.
	AddStream(s Stream, devFormat Format) error
	RemoveStream(s Stream) error

	IsOpen() bool
	StartRamp(req RampRequest) error

	// ShouldWake reports whether the device itself (independent of any
	// stream callback time) wants the scheduler to wake at WakeTime.
	ShouldWake() bool
	WakeTime() time.Time

	Underruns() (underrun, severeUnderrun int)
	HighWaterMark() int
	EstimatedRateRatio() float64

	// StreamOffset/SetStreamOffset expose the per-(device,stream) frame
	// offsets used by the input attach alignment rule (spec.md §4.3
	// step 7).
	StreamOffset(s Stream) (int, error)
	SetStreamOffset(s Stream, frames int) error

	// WakeFD returns an fd the scheduler should poll for this device
	// independent of stream wake fds (e.g. a hardware interrupt eventfd),
	// or -1 if none.
	WakeFD() int
}

// Stream is the opaque client-stream handle (output producer or input
// consumer), backed by a shared-memory region the scheduler never reads
// directly.
type Stream interface {
	ID() StreamID
	Direction() Direction
	Format() Format

	BufferFrames() int
	CallbackThreshold() int

	// SHMFrames returns the number of frames currently resident in the
	// stream's shared-memory region.
	SHMFrames() int

	SetDraining(bool)
	Draining() bool

	LongestFetchInterval() time.Duration
	Overruns() int

	APM() APMHandle

	// WakeFD returns the fd the scheduler polls to learn this stream's
	// client-side callback has produced/consumed samples.
	WakeFD() int
}

// Runner is the external device-I/O collaborator: it performs the actual
// sample mixing/demultiplexing and format conversion the scheduler itself
// never does.
type Runner interface {
	// DevIORun drives one iteration's I/O across both direction lists
	// using the given global remix converter (nil if none configured).
	DevIORun(outputs, inputs []Device, remixConverter interface{}) error

	// DevIONextInputWake folds every input device's next-wake
	// contribution into minTS, returning the updated minimum and whether
	// any input device contributed.
	DevIONextInputWake(inputs []Device, minTS time.Time) (newMin time.Time, contributed bool)
}

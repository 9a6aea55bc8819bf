package audio

import (
	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// handleDrainStream implements DRAIN_STREAM: marks an output stream as
// draining and returns the number of milliseconds remaining before its
// buffered frames will have played out. A stream not attached to any
// output device, or one with zero frames left, is reaped immediately
// (detached from every output device it's bound to, a no-op if it isn't
// bound to any) and reported as 0ms remaining, rather than waiting for
// the scheduler to notice on a later pass.
func (d *devices) handleDrainStream(stream iodev.Stream) (int, error) {
	if stream.Direction() != iodev.Output {
		return 0, wrapf(ErrInvalid, "stream %d is not an output stream", stream.ID())
	}

	if !d.streamAttachedToAny(stream, d.outputs) {
		return 0, nil
	}

	frames := stream.SHMFrames()
	if frames <= 0 {
		if err := d.handleDisconnectStream(stream, d.allOutputs()); err != nil {
			d.log.LogWarningWithError(err, "drain reap: detach failed")
		}
		return 0, nil
	}

	stream.SetDraining(true)
	rate := stream.Format().FrameRate
	if rate <= 0 {
		rate = 1
	}
	msRemaining := 1 + frames*1000/rate
	return msRemaining, nil
}

// streamAttachedToAny reports whether stream is currently bound to any
// device in list.
func (d *devices) streamAttachedToAny(stream iodev.Stream, list *deviceList) bool {
	for _, rec := range list.records {
		if rec.findStream(stream) != nil {
			return true
		}
	}
	return false
}

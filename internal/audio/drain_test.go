package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func TestHandleDrainStreamWithFramesRemaining(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(1)
	require.NoError(t, d.handleAddOpenDevice(dev))

	stream := iodev.NewSimulatedStream(1, iodev.Output, iodev.Format{FrameRate: 48000}, 2048, 512)
	stream.SetSHMFrames(4800)
	require.NoError(t, d.handleAddStream(stream, []iodev.Device{dev}, now()))

	ms, err := d.handleDrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, 1+4800*1000/48000, ms)
	assert.True(t, stream.Draining())
}

func TestHandleDrainStreamZeroFramesReaps(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(1)
	require.NoError(t, d.handleAddOpenDevice(dev))

	stream := iodev.NewSimulatedStream(1, iodev.Output, iodev.Format{FrameRate: 48000}, 2048, 512)
	stream.SetSHMFrames(0)
	require.NoError(t, d.handleAddStream(stream, []iodev.Device{dev}, now()))

	ms, err := d.handleDrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, 0, ms)
	assert.Nil(t, d.outputs.find(1).findStream(stream))
}

func TestHandleDrainStreamRejectsInput(t *testing.T) {
	d := newDevices(testDevLogger())
	stream := iodev.NewSimulatedStream(1, iodev.Input, iodev.Format{FrameRate: 48000}, 2048, 512)

	_, err := d.handleDrainStream(stream)
	require.Error(t, err)
}

func TestHandleDrainStreamNotAttachedReturnsZero(t *testing.T) {
	d := newDevices(testDevLogger())
	stream := iodev.NewSimulatedStream(1, iodev.Output, iodev.Format{FrameRate: 48000}, 2048, 512)

	ms, err := d.handleDrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, 0, ms)
	assert.False(t, stream.Draining())
}

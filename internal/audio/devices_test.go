package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func testDevLogger() *AudioLoggerStandards {
	return NewAudioLogger(GetDefaultLogger(), "test")
}

func newTestOutputDevice(idx iodev.DeviceIndex) *iodev.SimulatedDevice {
	return iodev.NewSimulatedDevice(idx, "test-out", iodev.Output, iodev.Format{FrameRate: 48000, NumChannels: 2}, 4096)
}

func newTestInputDevice(idx iodev.DeviceIndex) *iodev.SimulatedDevice {
	return iodev.NewSimulatedDevice(idx, "test-in", iodev.Input, iodev.Format{FrameRate: 48000, NumChannels: 2}, 4096)
}

func TestHandleAddOpenDevice(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(1)

	require.NoError(t, d.handleAddOpenDevice(dev))
	assert.True(t, d.handleIsDevOpen(iodev.Output, 1))

	err := d.handleAddOpenDevice(dev)
	require.Error(t, err)
	assert.Equal(t, ErrExist.Code(), CodeOf(err))
}

func TestHandleRemoveOpenDeviceUnlinksAttachedStreams(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(2)
	require.NoError(t, d.handleAddOpenDevice(dev))

	stream := iodev.NewSimulatedStream(10, iodev.Output, dev.Format(), 2048, 512)
	require.NoError(t, d.handleAddStream(stream, []iodev.Device{dev}, now()))

	require.NoError(t, d.handleRemoveOpenDevice(dev))
	assert.False(t, d.handleIsDevOpen(iodev.Output, 2))
}

func TestHandleRemoveOpenDeviceUnknownDeviceIsError(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(4)

	err := d.handleRemoveOpenDevice(dev)
	require.Error(t, err)
	assert.Equal(t, ErrInvalid.Code(), CodeOf(err))
}

func TestHandleIsDevOpenUnknownDevice(t *testing.T) {
	d := newDevices(testDevLogger())
	assert.False(t, d.handleIsDevOpen(iodev.Output, 99))
}

func TestHandleStartRampRequiresOpenDevice(t *testing.T) {
	d := newDevices(testDevLogger())
	dev := newTestOutputDevice(3)

	err := d.handleStartRamp(dev, iodev.RampRequestUp)
	require.Error(t, err)

	require.NoError(t, d.handleAddOpenDevice(dev))
	require.NoError(t, d.handleStartRamp(dev, iodev.RampRequestUp))
}

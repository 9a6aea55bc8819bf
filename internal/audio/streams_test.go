package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func TestHandleAddStreamAttachesToEveryDevice(t *testing.T) {
	d := newDevices(testDevLogger())
	dev1 := newTestOutputDevice(1)
	dev2 := newTestOutputDevice(2)
	require.NoError(t, d.handleAddOpenDevice(dev1))
	require.NoError(t, d.handleAddOpenDevice(dev2))

	stream := iodev.NewSimulatedStream(1, iodev.Output, dev1.Format(), 2048, 512)
	require.NoError(t, d.handleAddStream(stream, []iodev.Device{dev1, dev2}, now()))

	rec1 := d.outputs.find(1)
	rec2 := d.outputs.find(2)
	require.NotNil(t, rec1.findStream(stream))
	require.NotNil(t, rec2.findStream(stream))
}

func TestHandleAddStreamRollsBackOnUnknownDevice(t *testing.T) {
	d := newDevices(testDevLogger())
	dev1 := newTestOutputDevice(1)
	require.NoError(t, d.handleAddOpenDevice(dev1))

	unopened := newTestOutputDevice(2)
	stream := iodev.NewSimulatedStream(1, iodev.Output, dev1.Format(), 2048, 512)

	err := d.handleAddStream(stream, []iodev.Device{dev1, unopened}, now())
	require.Error(t, err)

	rec1 := d.outputs.find(1)
	assert.Nil(t, rec1.findStream(stream))
}

func TestHandleDisconnectStreamDetachesFromAll(t *testing.T) {
	d := newDevices(testDevLogger())
	dev1 := newTestOutputDevice(1)
	dev2 := newTestOutputDevice(2)
	require.NoError(t, d.handleAddOpenDevice(dev1))
	require.NoError(t, d.handleAddOpenDevice(dev2))

	stream := iodev.NewSimulatedStream(1, iodev.Output, dev1.Format(), 2048, 512)
	require.NoError(t, d.handleAddStream(stream, []iodev.Device{dev1, dev2}, now()))

	require.NoError(t, d.handleDisconnectStream(stream, nil))
	assert.Nil(t, d.outputs.find(1).findStream(stream))
	assert.Nil(t, d.outputs.find(2).findStream(stream))
}

func TestHandleDisconnectStreamUnknownReturnsNil(t *testing.T) {
	d := newDevices(testDevLogger())
	stream := iodev.NewSimulatedStream(1, iodev.Output, iodev.Format{FrameRate: 48000}, 2048, 512)

	require.NoError(t, d.handleDisconnectStream(stream, nil))
}

func TestInitCBTSOutputNoExistingStreamsIsNow(t *testing.T) {
	dev := newTestOutputDevice(1)
	stream := iodev.NewSimulatedStream(1, iodev.Output, dev.Format(), 2048, 512)
	rec := &OpenDeviceRecord{dev: dev}
	at := now()
	assert.Equal(t, at, initCBTS(rec, dev, stream, at))
}

func TestInitCBTSOutputAlignsToEarliestExistingStream(t *testing.T) {
	dev := newTestOutputDevice(1)
	at := now()
	earlier := at.Add(-5 * time.Millisecond)
	later := at.Add(10 * time.Millisecond)
	rec := &OpenDeviceRecord{dev: dev}
	rec.appendStream(&DevStream{nextCBTS: later})
	rec.appendStream(&DevStream{nextCBTS: earlier})

	stream := iodev.NewSimulatedStream(3, iodev.Output, dev.Format(), 2048, 512)
	assert.Equal(t, earlier, initCBTS(rec, dev, stream, at))
}

func TestInitCBTSInputIsNow(t *testing.T) {
	dev := newTestInputDevice(1)
	stream := iodev.NewSimulatedStream(1, iodev.Input, dev.Format(), 2048, 480)
	rec := &OpenDeviceRecord{dev: dev}
	at := now()
	assert.Equal(t, at, initCBTS(rec, dev, stream, at))
}

func TestAlignInputOffsetFlushesOnFirstStream(t *testing.T) {
	dev := newTestInputDevice(1)
	rec := &OpenDeviceRecord{dev: dev}
	stream := iodev.NewSimulatedStream(1, iodev.Input, dev.Format(), 2048, 480)

	require.NoError(t, alignInputOffset(dev, rec, stream))
	assert.Equal(t, 1, dev.FlushCaptureCalls())
}

func TestAlignInputOffsetClampsToSubsequentStreamThreshold(t *testing.T) {
	dev := newTestInputDevice(1)
	first := iodev.NewSimulatedStream(1, iodev.Input, dev.Format(), 2048, 960)
	rec := &OpenDeviceRecord{dev: dev}
	rec.appendStream(&DevStream{stream: first, dev: dev})
	require.NoError(t, dev.SetStreamOffset(first, 700))

	second := iodev.NewSimulatedStream(2, iodev.Input, dev.Format(), 2048, 480)
	require.NoError(t, alignInputOffset(dev, rec, second))

	offset, err := dev.StreamOffset(second)
	require.NoError(t, err)
	assert.Equal(t, 480, offset)
}

//go:build linux

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func newTestThread(t *testing.T) (*AudioThread, *iodev.SimulatedRunner) {
	t.Helper()
	runner := iodev.NewSimulatedRunner()
	at, err := NewAudioThread(runner)
	require.NoError(t, err)
	at.Start()
	t.Cleanup(at.Stop)
	return at, runner
}

func TestAudioThreadAddRemoveOpenDevice(t *testing.T) {
	at, _ := newTestThread(t)
	dev := newTestOutputDevice(1)
	defer dev.Close()

	require.NoError(t, at.AddOpenDevice(dev))

	open, err := at.IsDevOpen(dev)
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, at.RemoveOpenDevice(dev))
	open, err = at.IsDevOpen(dev)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestAudioThreadAddStreamAndDrain(t *testing.T) {
	at, _ := newTestThread(t)
	dev := newTestOutputDevice(1)
	defer dev.Close()
	require.NoError(t, at.AddOpenDevice(dev))

	stream := iodev.NewSimulatedStream(1, iodev.Output, dev.Format(), 2048, 512)
	defer stream.Close()
	stream.SetSHMFrames(4800)

	require.NoError(t, at.AddStream(stream, []iodev.Device{dev}))

	ms, err := at.DrainStream(stream)
	require.NoError(t, err)
	assert.Greater(t, ms, 0)

	require.NoError(t, at.DisconnectStream(stream, nil))
}

func TestAudioThreadDumpThreadInfo(t *testing.T) {
	at, _ := newTestThread(t)
	dev := newTestOutputDevice(1)
	defer dev.Close()
	require.NoError(t, at.AddOpenDevice(dev))

	snap, err := at.DumpThreadInfo()
	require.NoError(t, err)
	require.Len(t, snap.Devices, 1)
	assert.Equal(t, dev.Index(), snap.Devices[0].Index)
}

func TestAudioThreadConfigGlobalRemix(t *testing.T) {
	at, _ := newTestThread(t)

	old, err := at.ConfigGlobalRemix("converter-a")
	require.NoError(t, err)
	assert.Nil(t, old)

	old, err = at.ConfigGlobalRemix("converter-b")
	require.NoError(t, err)
	assert.Equal(t, "converter-a", old)
}

func TestAudioThreadRemoveCallback(t *testing.T) {
	at, _ := newTestThread(t)
	at.RegisterCallback(123, nil, func(interface{}) error { return nil })
	require.NoError(t, at.RemoveCallback(123))
	err := at.RemoveCallback(123)
	require.Error(t, err)
}

func TestAudioThreadStopIsIdempotent(t *testing.T) {
	at, err := NewAudioThread(nil)
	require.NoError(t, err)
	at.Start()
	time.Sleep(10 * time.Millisecond)
	at.Stop()
	at.Stop()
	assert.False(t, at.IsRunning())
}

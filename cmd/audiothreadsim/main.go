// Command audiothreadsim drives an AudioThread against simulated devices
// and streams so its wake behavior and command handling can be observed
// without real hardware.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jetkvm/audiothread/internal/audio"
	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func main() {
	logger := audio.GetDefaultLogger()

	runner := iodev.NewSimulatedRunner()
	thread, err := audio.NewAudioThread(runner)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create audio thread")
		os.Exit(1)
	}
	thread.Start()

	outDev := iodev.NewSimulatedDevice(1, "sim-speaker", iodev.Output, iodev.Format{FrameRate: 48000, NumChannels: 2}, 4096)
	defer outDev.Close()
	if err := thread.AddOpenDevice(outDev); err != nil {
		logger.Error().Err(err).Msg("failed to open device")
		os.Exit(1)
	}

	streamName := uuid.New().String()
	stream := iodev.NewSimulatedStream(1, iodev.Output, outDev.Format(), 2048, 512)
	defer stream.Close()
	if err := thread.AddStream(stream, []iodev.Device{outDev}); err != nil {
		logger.Error().Err(err).Str("stream", streamName).Msg("failed to attach stream")
		os.Exit(1)
	}
	logger.Info().Str("stream", streamName).Msg("stream attached")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			snap, err := thread.DumpThreadInfo()
			if err != nil {
				logger.Warn().Err(err).Msg("dump thread info failed")
				continue
			}
			logger.Info().
				Int("devices", len(snap.Devices)).
				Int("streams", len(snap.Streams)).
				Int64("commands_processed", thread.CommandsProcessed()).
				Msg("thread snapshot")
		case <-sigs:
			logger.Info().Msg("shutting down")
			_ = thread.DisconnectStream(stream, nil)
			_ = thread.RemoveOpenDevice(outDev)
			thread.Stop()
			return
		}
	}
}

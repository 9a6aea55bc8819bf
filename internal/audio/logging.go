package audio

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLoggerOnce sync.Once
	defaultLogger     zerolog.Logger
)

// GetDefaultLogger returns the package-wide base logger that every
// component logger (NewAudioLogger) is derived from via .With().
func GetDefaultLogger() zerolog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Str("module", "audiothread").Logger()
	})
	return defaultLogger
}

// SetDefaultLogger overrides the package-wide base logger, e.g. so an
// embedding application can route audiothread logs into its own sink.
func SetDefaultLogger(l zerolog.Logger) {
	defaultLoggerOnce.Do(func() {})
	defaultLogger = l
}

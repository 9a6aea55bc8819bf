package audio

import (
	"time"

	"github.com/rs/zerolog"
)

// AudioLoggerStandards provides standardized logging patterns for the
// scheduler's components (command channel, wake scheduler, attach/detach,
// drain, lifecycle).
type AudioLoggerStandards struct {
	logger    zerolog.Logger
	component string
}

// NewAudioLogger creates a new standardized logger for a component.
func NewAudioLogger(logger zerolog.Logger, component string) *AudioLoggerStandards {
	return &AudioLoggerStandards{
		logger:    logger.With().Str("component", component).Logger(),
		component: component,
	}
}

// Component Lifecycle Logging

func (als *AudioLoggerStandards) LogComponentStarting() {
	als.logger.Debug().Msg("starting component")
}

func (als *AudioLoggerStandards) LogComponentStarted() {
	als.logger.Debug().Msg("component started successfully")
}

func (als *AudioLoggerStandards) LogComponentStopping() {
	als.logger.Debug().Msg("stopping component")
}

func (als *AudioLoggerStandards) LogComponentStopped() {
	als.logger.Debug().Msg("component stopped")
}

// Error Logging with Context

// LogError logs a general error with context.
func (als *AudioLoggerStandards) LogError(err error, msg string) {
	als.logger.Error().Err(err).Msg(msg)
}

// LogErrorWithContext logs an error with additional context fields.
func (als *AudioLoggerStandards) LogErrorWithContext(err error, msg string, fields map[string]interface{}) {
	event := als.logger.Error().Err(err)
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}

// Warning Logging

func (als *AudioLoggerStandards) LogWarning(msg string) {
	als.logger.Warn().Msg(msg)
}

func (als *AudioLoggerStandards) LogWarningWithError(err error, msg string) {
	als.logger.Warn().Err(err).Msg(msg)
}

// LogRetryWarning logs retry attempts with context.
func (als *AudioLoggerStandards) LogRetryWarning(operation string, attempt, maxAttempts int, delay time.Duration) {
	als.logger.Warn().
		Str("operation", operation).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Dur("retry_delay", delay).
		Msg("retrying operation")
}

// Debug Logging

func (als *AudioLoggerStandards) LogDebug(msg string) {
	als.logger.Debug().Msg(msg)
}

// LogDebugWithFields logs debug information with structured fields.
func (als *AudioLoggerStandards) LogDebugWithFields(msg string, fields map[string]interface{}) {
	event := als.logger.Debug()
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}

// Configuration and State Logging

// LogStateTransition logs component state changes (e.g. stream attach,
// drain start, device add/remove).
func (als *AudioLoggerStandards) LogStateTransition(fromState, toState string, reason string) {
	als.logger.Info().
		Str("from_state", fromState).
		Str("to_state", toState).
		Str("reason", reason).
		Msg("state transition")
}

// LogPriorityChange logs thread priority changes.
func (als *AudioLoggerStandards) LogPriorityChange(tid, oldPriority, newPriority int, policy string) {
	als.logger.Debug().
		Int("tid", tid).
		Int("old_priority", oldPriority).
		Int("new_priority", newPriority).
		Str("policy", policy).
		Msg("thread priority changed")
}

// Utility Functions

// GetLogger returns the underlying zerolog.Logger for advanced usage.
func (als *AudioLoggerStandards) GetLogger() zerolog.Logger {
	return als.logger
}

// WithSubComponent creates a logger for a sub-component.
func (als *AudioLoggerStandards) WithSubComponent(subComponent string) *AudioLoggerStandards {
	return &AudioLoggerStandards{
		logger:    als.logger.With().Str("sub_component", subComponent).Logger(),
		component: als.component + "." + subComponent,
	}
}

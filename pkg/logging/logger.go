// Package logging provides structured logging for the geomanifest system using zerolog.
// Console output is used when stderr is a terminal and structured JSON otherwise.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("project_id", "kursk").Msg("Ingesting project")
//
//	ctx := logging.WithProject(context.Background(), "kursk")
//	logging.FromContext(ctx).Warn().Str("layer_id", "wells").Msg("Layer degraded")
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is read from the environment at start-up and replaced by
// Configure or SetDefault.
var defaultLogger = NewLoggerFromConfig(ConfigFromEnv())

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger and the zerolog/log package logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

// Package logger provides the structured logging interface used across igcomments.
//
// It wraps zerolog with a small API:
// - Leveled logging (Debug, Info, Warn, Error)
// - Structured fields via WithField, WithFields and the *WithFields methods
// - Colored console output, optionally mirrored to a file
// - A global logger for code that has no logger injected
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("Collector started")
//	logger.WithField("shortcode", "C0dE123").Info("Resuming from checkpoint")
//	logger.WithError(err).Error("Failed to save comments")
//
// Components receive a Logger and fall back to GetLogger when given nil.
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger

// Package log provides structured event capture for alias resolution and
// attribute subscriptions.
//
// This package defines the Logger interface and Event types for recording
// what the engine did at three layers: the resolver (alias filter
// evaluation), the multiplexer (shared subscriptions and their value
// tables) and the channel (push-channel commands and updates). It is
// separate from operational logging (slog): event capture is a complete
// machine-readable trace for debugging dashboards.
//
// # Basic Usage
//
// Components take a Logger through their options:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/dashlink/session.dlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Components emit through an Emitter, which stamps every event with the
// session id and the current time.
//
// # Event Types
//
//   - Resolver: one ResolveEvent per resolution (filter type, outcome, count)
//   - Multiplexer: FrameEvent per applied push frame, StateChangeEvent for
//     registrations and upstream subscriptions
//   - Channel: CommandEvent per subscribe/unsubscribe command, FrameEvent per
//     update received
//
// Errors at any layer have a dedicated ErrorEventData payload.
//
// # File Format
//
// Log files use CBOR encoding with .dlog extension. The dashlink-log CLI
// tool provides viewing, filtering and statistics.
package log

// Package log provides structured capture logging of multitouch input.
//
// This package defines the Logger interface and Event types for recording
// what a device manager saw and did: raw frames as delivered by the producer,
// path transitions, handle state changes, device descriptors and reported
// problems. It is separate from operational logging (slog); a capture is a
// complete machine-readable trace that can be inspected with mt-log or
// replayed through a device manager.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.CaptureLogger = log.NewSlogAdapter(slog.Default())
//
//	// For recording: write to binary file
//	cfg.CaptureLogger, _ = log.NewFileLogger("/tmp/trackpad.mtlog")
//
//	// Both: use MultiLogger
//	cfg.CaptureLogger = log.NewMultiLogger(adapter, fileLogger)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and use
// the .mtlog extension.
package log

// Package log records structured operation events for iio contexts and the
// bridge.
//
// Operational diagnostics go through log/slog. This package is the
// machine-readable trail underneath: every context open and close, every
// attribute access, every buffer transfer and every bridge frame can be
// captured as an Event.
//
// # Basic Usage
//
//	// Console, for development
//	opts.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// Compact binary file
//	fl, _ := log.NewFileLogger("/var/log/iio/session.ilog")
//	opts.EventLogger = fl
//
//	// Both, plus Prometheus counters
//	opts.EventLogger = log.NewMultiLogger(fl, log.NewSlogAdapter(slog.Default()), collector)
//
// # File Format
//
// Files are a stream of CBOR maps with integer keys, one per event, using
// the .ilog extension. Reader replays them, optionally through a Filter.
package log

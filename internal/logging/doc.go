// Package logging assembles structured slog loggers and formatting helpers used
// across barcoded.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the render request ID. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// The daemon opens exactly one logger at startup and closes it on shutdown;
// components receive it as an argument instead of reaching for slog.Default.
package logging

// Package logging assembles structured slog loggers and formatting helpers used
// across scribe.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code automatically tags log
// lines with the run ID, input file, and segment index. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging

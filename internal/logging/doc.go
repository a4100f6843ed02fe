// Package logging assembles structured slog loggers and formatting helpers used
// across autocollect.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatch code can
// automatically tag log lines with the active rule and catalog item. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Diagnostics go through these loggers; the coloured "Adding ... to
// collection ..." announcements are a separate reporter in the dispatch
// package and never pass through slog.
package logging

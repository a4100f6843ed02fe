// Package services defines shared utilities consumed by the rule dispatcher
// and the Plex integration.
//
// Key responsibilities:
//   - Context helpers that stamp the active rule, rule kind, and catalog item
//     onto a context so log lines carry them without manual plumbing.
//   - Structured error markers plus the Wrap helper that let the CLI decide
//     whether a failure aborts the run (configuration, authentication,
//     discovery) or is logged and skipped (per-item mutations).
//
// Use these helpers when wiring new Plex calls or dispatch paths so
// operational behaviour stays uniform across the run.
package services

// Package logging assembles the slog loggers used across sublingo.
//
// It owns the console and JSON handlers, the level and output plumbing, and
// the context helpers that tag log lines with the run, batch range and
// provider a dispatch call belongs to. NewNop returns a discarding logger for
// tests and wiring code that cannot fail.
package logging

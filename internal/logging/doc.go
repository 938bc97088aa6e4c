// Package logging assembles structured slog loggers and formatting helpers used
// across roomcheck.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so request handlers and store calls can tag log
// lines with request IDs and entry IDs. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging

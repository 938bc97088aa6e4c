// Package logs reads the daemon log file incrementally. Callers keep the
// returned byte offset and pass it back to continue where they left off.
package logs

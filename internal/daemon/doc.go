// Package daemon coordinates the long-running roomcheck process.
//
// It wires configuration, the record store, the sync adapter, the staff
// roster, the refinement gateway and the image codec into a single lifecycle
// with flock-based locking to prevent multiple instances on one data
// directory. A live feed keeps the latest inspection snapshot in memory so
// HTTP clients can long-poll for changes instead of re-reading the store.
//
// Keep orchestration logic here: domain rules live in their respective
// packages while the daemon focuses on startup, shutdown and the HTTP surface.
package daemon

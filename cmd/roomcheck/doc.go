// Command roomcheck records and reviews hotel room inspections.
//
// Most commands work directly on the local record store, so they run with or
// without a daemon. The daemon subcommands manage roomcheckd, and
// `watch --remote` follows a running daemon over its HTTP API.
package main

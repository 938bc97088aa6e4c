// Package daemonctl lets the CLI find, launch, stop and query a roomcheckd
// process. Liveness is the data directory lock; queries go over the HTTP API.
package daemonctl

// Package api defines wire-format types and converters for the HTTP API
// served by roomcheckd and consumed by the CLI's remote commands.
//
// # Key Types
//
// InspectionRecord: transport representation of a submitted inspection with
// its defect entries, derived summary and creation time.
//
// SnapshotResponse: a versioned full snapshot of the inspection collection.
// Clients long-poll with the last version they saw and receive the next
// snapshot once one exists.
//
// SubmitRequest: a new inspection, or an edit when ID is set.
//
// DaemonStatus: runtime information including preflight results.
//
// # Converters
//
// FromRecord: inspection.Record -> InspectionRecord.
//
// ApplySubmit: SubmitRequest -> inspection.Session, validating every entry the
// same way the interactive builder does.
//
// # Design Notes
//
// DTOs use camelCase JSON tags matching the stored document fields. Timestamps
// use RFC3339 with milliseconds. Photos travel as base64 JPEG data URLs.
package api

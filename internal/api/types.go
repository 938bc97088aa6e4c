package api

import (
	"roomcheck/internal/analytics"
	"roomcheck/internal/inspection"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Header names understood by the API.
const (
	HeaderPassphrase = "X-Delete-Passphrase"
	HeaderRequestID  = "X-Request-ID"
)

// DefectEntry is one issue inside an inspection.
type DefectEntry struct {
	ID       string `json:"id,omitempty"`
	Team     string `json:"team"`
	Title    string `json:"title"`
	Grade    string `json:"grade"`
	Note     string `json:"note"`
	Photo    string `json:"photo,omitempty"`
	IsCustom bool   `json:"isCustom"`
}

// InspectionRecord describes a stored inspection in a transport-friendly format.
type InspectionRecord struct {
	ID         string        `json:"id"`
	RoomID     string        `json:"roomId"`
	Inspector  string        `json:"inspector"`
	BedStaff   string        `json:"bedStaff"`
	WaterStaff string        `json:"waterStaff"`
	Issues     []DefectEntry `json:"issues"`
	IssueCount int           `json:"issueCount"`
	HasGradeA  bool          `json:"hasGradeA"`
	MonthKey   string        `json:"monthKey,omitempty"`
	CreatedAt  string        `json:"createdAt,omitempty"`
}

// SnapshotResponse wraps a full, newest-first snapshot with its version.
type SnapshotResponse struct {
	Version uint64             `json:"version"`
	Records []InspectionRecord `json:"records"`
}

// RecordResponse wraps a single record.
type RecordResponse struct {
	Record InspectionRecord `json:"record"`
}

// SubmitRequest carries a session to persist. A non-empty ID edits that
// record in place.
type SubmitRequest struct {
	ID         string        `json:"id,omitempty"`
	RoomID     string        `json:"roomId"`
	Inspector  string        `json:"inspector"`
	BedStaff   string        `json:"bedStaff"`
	WaterStaff string        `json:"waterStaff"`
	Issues     []DefectEntry `json:"issues"`
}

// SubmitResponse reports the persisted record id.
type SubmitResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// StaffPatchRequest assigns a roster name to one crew slot.
type StaffPatchRequest struct {
	Slot string `json:"slot"`
	Name string `json:"name"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// StatsResponse is the dashboard for one month.
type StatsResponse struct {
	analytics.Stats
}

// RosterResponse lists the crew names per slot.
type RosterResponse struct {
	Bed   []string `json:"bed"`
	Water []string `json:"water"`
}

// RosterRequest adds a name to a slot, or to both with slot "all".
type RosterRequest struct {
	Name string `json:"name"`
	Slot string `json:"slot"`
}

// Floor lists the rooms on one floor.
type Floor struct {
	Number int      `json:"number"`
	Rooms  []string `json:"rooms"`
}

// RoomsResponse lists the room registry.
type RoomsResponse struct {
	Floors []Floor `json:"floors"`
}

// TemplatesResponse lists quick-issue templates per team.
type TemplatesResponse struct {
	Water []inspection.Template `json:"water"`
	Bed   []inspection.Template `json:"bed"`
}

// RefineRequest carries an inspector's shorthand note.
type RefineRequest struct {
	Note string `json:"note"`
}

// RefineResponse is the oracle's suggestion.
type RefineResponse struct {
	Title string `json:"title"`
	Note  string `json:"note"`
	Grade string `json:"grade"`
}

// ReportResponse holds the markdown daily report.
type ReportResponse struct {
	Markdown string `json:"markdown"`
	Records  int    `json:"records"`
}

// PhotoResponse carries a processed photo.
type PhotoResponse struct {
	Photo  string `json:"photo"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

// AnnotateRequest stamps a marker on Photo. The click is given in display
// coordinates together with the displayed size; when the display size is
// omitted X and Y are native pixel coordinates.
type AnnotateRequest struct {
	Photo         string  `json:"photo"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	DisplayWidth  float64 `json:"displayWidth,omitempty"`
	DisplayHeight float64 `json:"displayHeight,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running         bool          `json:"running"`
	PID             int           `json:"pid"`
	StorePath       string        `json:"storePath"`
	LockFilePath    string        `json:"lockFilePath"`
	ReadOnly        bool          `json:"readOnly"`
	Connected       bool          `json:"connected"`
	UID             string        `json:"uid,omitempty"`
	Anonymous       bool          `json:"anonymous"`
	SnapshotVersion uint64        `json:"snapshotVersion"`
	RecordCount     int           `json:"recordCount"`
	RefineEnabled   bool          `json:"refineEnabled"`
	Checks          []CheckResult `json:"checks"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// LogsResponse is a batch of daemon log lines. Offset is passed back as
// ?offset= to continue.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

package inspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Team is the housekeeping crew a defect is attributed to.
type Team string

const (
	TeamWater Team = "water"
	TeamBed   Team = "bed"
)

// Valid reports whether t is a known crew.
func (t Team) Valid() bool { return t == TeamWater || t == TeamBed }

// ParseTeam accepts either crew name in any case.
func ParseTeam(value string) (Team, error) {
	team := Team(strings.ToLower(strings.TrimSpace(value)))
	if !team.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTeam, value)
	}
	return team, nil
}

// Grade is the defect severity. A fails the room, B and C deduct points.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// Valid reports whether g is one of A, B, C.
func (g Grade) Valid() bool { return g == GradeA || g == GradeB || g == GradeC }

// ParseGrade accepts a, b, c in either case.
func ParseGrade(value string) (Grade, error) {
	grade := Grade(strings.ToUpper(strings.TrimSpace(value)))
	if !grade.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, value)
	}
	return grade, nil
}

// Label returns the scoring consequence of the grade.
func (g Grade) Label() string {
	switch g {
	case GradeA:
		return "fail"
	case GradeB:
		return "-10 points"
	case GradeC:
		return "-2 to -5 points"
	default:
		return ""
	}
}

// StaffSlot names one of the two crew attribution fields on a record.
type StaffSlot string

const (
	SlotBed   StaffSlot = "bed"
	SlotWater StaffSlot = "water"
)

// ParseSlot accepts bed or water.
func ParseSlot(value string) (StaffSlot, error) {
	switch StaffSlot(strings.ToLower(strings.TrimSpace(value))) {
	case SlotBed:
		return SlotBed, nil
	case SlotWater:
		return SlotWater, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
}

// Field returns the document field the slot is stored under.
func (s StaffSlot) Field() string {
	if s == SlotWater {
		return "waterStaff"
	}
	return "bedStaff"
}

// EntryID identifies a defect entry. Older records stored numeric
// millisecond timestamps, so decoding accepts numbers as well as strings.
type EntryID string

func (id *EntryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

// DefectEntry is one recorded issue inside an inspection.
type DefectEntry struct {
	ID       EntryID `json:"id"`
	Team     Team    `json:"team"`
	Title    string  `json:"title"`
	Grade    Grade   `json:"grade"`
	Note     string  `json:"note"`
	Photo    string  `json:"photo,omitempty"`
	IsCustom bool    `json:"isCustom"`
}

// HasPhoto reports whether the entry carries photo evidence.
func (e DefectEntry) HasPhoto() bool { return e.Photo != "" }

// Summary holds the values derived from a list of entries.
type Summary struct {
	IssueCount int  `json:"issueCount"`
	HasSevere  bool `json:"hasSevere"`
}

// Summarize derives the issue count and severe flag from entries.
func Summarize(entries []DefectEntry) Summary {
	summary := Summary{IssueCount: len(entries)}
	for _, e := range entries {
		if e.Grade == GradeA {
			summary.HasSevere = true
			break
		}
	}
	return summary
}

// Record is the persisted form of a submitted inspection. ID and CreatedAt are
// owned by the store and travel outside the document body.
type Record struct {
	ID         string        `json:"-"`
	CreatedAt  time.Time     `json:"-"`
	RoomID     string        `json:"roomId"`
	Inspector  string        `json:"inspector"`
	BedStaff   string        `json:"bedStaff"`
	WaterStaff string        `json:"waterStaff"`
	Issues     []DefectEntry `json:"issues"`
	IssueCount int           `json:"issueCount"`
	HasGradeA  bool          `json:"hasGradeA"`
	MonthKey   string        `json:"monthKey,omitempty"`
}

// DefectCount returns the stored issue count, falling back to the length of
// the issue list for documents written without one.
func (r Record) DefectCount() int {
	if r.IssueCount == 0 {
		return len(r.Issues)
	}
	return r.IssueCount
}

// Staff returns the name held in slot.
func (r Record) Staff(slot StaffSlot) string {
	if slot == SlotWater {
		return r.WaterStaff
	}
	return r.BedStaff
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Issues != nil {
		out.Issues = make([]DefectEntry, len(r.Issues))
		copy(out.Issues, r.Issues)
	}
	return out
}

// MonthKey renders the aggregation window for t, always in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

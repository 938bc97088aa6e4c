package inspection

import (
	"strings"
	"time"
)

// Session accumulates the entries of one in-progress room inspection. It is
// not safe for concurrent mutation; callers serialize edits.
//
// A session produced by FromRecord carries the record identity so that a
// later submit replaces that record instead of creating a new one.
type Session struct {
	RoomID     string
	Inspector  string
	BedStaff   string
	WaterStaff string
	Entries    []DefectEntry

	recordID  string
	createdAt time.Time
	monthKey  string
}

// NewSession starts a fresh inspection.
func NewSession(roomID, inspector string) *Session {
	return &Session{RoomID: roomID, Inspector: inspector}
}

// FromRecord opens an existing record for editing. The returned session owns
// its own copy of every field.
func FromRecord(r Record) *Session {
	c := r.Clone()
	return &Session{
		RoomID:     c.RoomID,
		Inspector:  c.Inspector,
		BedStaff:   c.BedStaff,
		WaterStaff: c.WaterStaff,
		Entries:    c.Issues,
		recordID:   c.ID,
		createdAt:  c.CreatedAt,
		monthKey:   c.MonthKey,
	}
}

// RecordID is the identifier of the record being edited, empty for new sessions.
func (s *Session) RecordID() string { return s.recordID }

// IsEdit reports whether submitting replaces an existing record.
func (s *Session) IsEdit() bool { return s.recordID != "" }

// CreatedAt returns the original creation time of an edited record.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// AddEntry appends e. Repeated titles are allowed; the same defect can appear
// in several places in one room.
func (s *Session) AddEntry(e DefectEntry) {
	s.Entries = append(s.Entries, e)
}

// RemoveEntry drops the entry with the given id and reports whether one was
// found.
func (s *Session) RemoveEntry(id EntryID) bool {
	for i, e := range s.Entries {
		if e.ID == id {
			s.Entries = append(s.Entries[:i:i], s.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entry returns the entry with the given id.
func (s *Session) Entry(id EntryID) (DefectEntry, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return DefectEntry{}, false
}

// CanSubmit is true once a room and an inspector are set. Crew names may be
// filled in later.
func (s *Session) CanSubmit() bool {
	return strings.TrimSpace(s.RoomID) != "" && strings.TrimSpace(s.Inspector) != ""
}

// Summarize derives the issue count and severe flag from the current entries.
func (s *Session) Summarize() Summary {
	return Summarize(s.Entries)
}

// Validate returns the first validation error blocking submission. A nil
// registry skips the room lookup.
func (s *Session) Validate(rooms *Registry) error {
	if strings.TrimSpace(s.RoomID) == "" {
		return ErrMissingRoom
	}
	if strings.TrimSpace(s.Inspector) == "" {
		return ErrMissingInspector
	}
	if rooms != nil && !rooms.Known(strings.TrimSpace(s.RoomID)) {
		return ErrUnknownRoom
	}
	seen := make(map[EntryID]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		if strings.TrimSpace(e.Title) == "" {
			return ErrEmptyTitle
		}
		if !e.Grade.Valid() {
			return ErrInvalidGrade
		}
		if _, dup := seen[e.ID]; dup {
			return ErrDuplicateEntry
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// ToRecord builds the document written on submit. New sessions take their
// month key from now; edits keep the original month key and creation time.
func (s *Session) ToRecord(now time.Time) Record {
	entries := make([]DefectEntry, len(s.Entries))
	copy(entries, s.Entries)
	summary := Summarize(entries)

	monthKey := s.monthKey
	if !s.IsEdit() || monthKey == "" {
		monthKey = MonthKey(now)
	}
	return Record{
		ID:         s.recordID,
		CreatedAt:  s.createdAt,
		RoomID:     strings.TrimSpace(s.RoomID),
		Inspector:  strings.TrimSpace(s.Inspector),
		BedStaff:   strings.TrimSpace(s.BedStaff),
		WaterStaff: strings.TrimSpace(s.WaterStaff),
		Issues:     entries,
		IssueCount: summary.IssueCount,
		HasGradeA:  summary.HasSevere,
		MonthKey:   monthKey,
	}
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	if s.Entries != nil {
		out.Entries = make([]DefectEntry, len(s.Entries))
		copy(out.Entries, s.Entries)
	}
	return &out
}

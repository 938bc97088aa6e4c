package api

import (
	"fmt"
	"strings"
	"time"

	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
	"roomcheck/internal/preflight"
	"roomcheck/internal/refine"
)

// FromRecord converts a stored record to its API representation.
func FromRecord(r inspection.Record) InspectionRecord {
	dto := InspectionRecord{
		ID:         r.ID,
		RoomID:     r.RoomID,
		Inspector:  r.Inspector,
		BedStaff:   r.BedStaff,
		WaterStaff: r.WaterStaff,
		Issues:     fromEntries(r.Issues),
		IssueCount: r.DefectCount(),
		HasGradeA:  r.HasGradeA,
		MonthKey:   r.MonthKey,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromRecords converts a snapshot, keeping its order.
func FromRecords(records []inspection.Record) []InspectionRecord {
	out := make([]InspectionRecord, 0, len(records))
	for _, r := range records {
		out = append(out, FromRecord(r))
	}
	return out
}

// ToRecord converts an exported record back for import. The timestamp must be
// empty or in the API format; entries are taken as-is.
func ToRecord(dto InspectionRecord) (inspection.Record, error) {
	rec := inspection.Record{
		ID:         strings.TrimSpace(dto.ID),
		RoomID:     dto.RoomID,
		Inspector:  dto.Inspector,
		BedStaff:   dto.BedStaff,
		WaterStaff: dto.WaterStaff,
		MonthKey:   dto.MonthKey,
		Issues:     make([]inspection.DefectEntry, 0, len(dto.Issues)),
	}
	if ts := strings.TrimSpace(dto.CreatedAt); ts != "" {
		created, err := time.Parse(dateTimeFormat, ts)
		if err != nil {
			return inspection.Record{}, fmt.Errorf("record %s: createdAt: %w", rec.ID, err)
		}
		rec.CreatedAt = created
	}
	for _, e := range dto.Issues {
		rec.Issues = append(rec.Issues, inspection.DefectEntry{
			ID:       inspection.EntryID(e.ID),
			Team:     inspection.Team(e.Team),
			Title:    e.Title,
			Grade:    inspection.Grade(e.Grade),
			Note:     e.Note,
			Photo:    e.Photo,
			IsCustom: e.IsCustom,
		})
	}
	summary := inspection.Summarize(rec.Issues)
	rec.IssueCount = summary.IssueCount
	rec.HasGradeA = summary.HasSevere
	return rec, nil
}

func fromEntries(entries []inspection.DefectEntry) []DefectEntry {
	out := make([]DefectEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DefectEntry{
			ID:       string(e.ID),
			Team:     string(e.Team),
			Title:    e.Title,
			Grade:    string(e.Grade),
			Note:     e.Note,
			Photo:    e.Photo,
			IsCustom: e.IsCustom,
		})
	}
	return out
}

// ApplySubmit copies req onto s, replacing its header fields and entries.
// Entries are finalized through b so a wire entry obeys the same rules as one
// built interactively; an entry that already has an id keeps it unless an
// earlier entry in the same request claimed it, in which case the repeat gets
// the fresh id the builder issued.
func ApplySubmit(s *inspection.Session, req SubmitRequest, b *inspection.Builder) error {
	entries := make([]inspection.DefectEntry, 0, len(req.Issues))
	seen := make(map[inspection.EntryID]struct{}, len(req.Issues))
	for i, payload := range req.Issues {
		entry, err := toEntry(payload, b, seen)
		if err != nil {
			return fmt.Errorf("issue %d: %w", i+1, err)
		}
		seen[entry.ID] = struct{}{}
		entries = append(entries, entry)
	}
	s.RoomID = strings.TrimSpace(req.RoomID)
	s.Inspector = strings.TrimSpace(req.Inspector)
	s.BedStaff = strings.TrimSpace(req.BedStaff)
	s.WaterStaff = strings.TrimSpace(req.WaterStaff)
	s.Entries = entries
	return nil
}

func toEntry(p DefectEntry, b *inspection.Builder, taken map[inspection.EntryID]struct{}) (inspection.DefectEntry, error) {
	team, err := inspection.ParseTeam(p.Team)
	if err != nil {
		return inspection.DefectEntry{}, err
	}
	grade, err := inspection.ParseGrade(p.Grade)
	if err != nil {
		return inspection.DefectEntry{}, err
	}
	photo := strings.TrimSpace(p.Photo)
	if photo != "" {
		if _, err := imaging.ParseDataURL(photo); err != nil {
			return inspection.DefectEntry{}, err
		}
	}
	entry, err := b.Finalize(inspection.Draft{
		Team:     team,
		Title:    p.Title,
		Grade:    grade,
		Note:     strings.TrimSpace(p.Note),
		IsCustom: p.IsCustom,
	})
	if err != nil {
		return inspection.DefectEntry{}, err
	}
	entry.Photo = photo
	if id := inspection.EntryID(strings.TrimSpace(p.ID)); id != "" {
		if _, dup := taken[id]; !dup {
			entry.ID = id
		}
	}
	return entry, nil
}

// FromSuggestion converts an oracle suggestion.
func FromSuggestion(s refine.Suggestion) RefineResponse {
	return RefineResponse{Title: s.Title, Note: s.Note, Grade: string(s.Grade)}
}

// FromRegistry lists the registry floors.
func FromRegistry(r *inspection.Registry) RoomsResponse {
	floors := r.Floors()
	out := RoomsResponse{Floors: make([]Floor, 0, len(floors))}
	for _, f := range floors {
		out.Floors = append(out.Floors, Floor{Number: f.Number, Rooms: append([]string(nil), f.Rooms...)})
	}
	return out
}

// FromPhoto renders a processed photo.
func FromPhoto(p imaging.Photo) PhotoResponse {
	return PhotoResponse{Photo: p.DataURL(), Width: p.Width, Height: p.Height, Bytes: len(p.Data)}
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

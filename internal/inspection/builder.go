package inspection

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"roomcheck/internal/imaging"
)

// Draft is a defect entry still being edited. It becomes a DefectEntry through
// Builder.Finalize.
type Draft struct {
	Team     Team
	Title    string
	Grade    Grade
	Note     string
	IsCustom bool

	photo    imaging.Photo
	captured imaging.Photo
}

// FromTemplate starts a draft from a quick-issue label.
func FromTemplate(team Team, label string, grade Grade) Draft {
	return Draft{Team: team, Title: label, Grade: grade}
}

// FromCustom starts an empty free-form draft graded C.
func FromCustom(team Team) Draft {
	return Draft{Team: team, Grade: GradeC, IsCustom: true}
}

// Photo returns the current, possibly annotated, photo.
func (d *Draft) Photo() imaging.Photo { return d.photo }

// AttachPhoto sets a freshly compressed capture, replacing any earlier one
// together with its markers.
func (d *Draft) AttachPhoto(p imaging.Photo) {
	d.photo = p
	d.captured = p
}

// Annotator stamps a marker onto a photo.
type Annotator interface {
	Annotate(photo imaging.Photo, at imaging.Point) (imaging.Photo, error)
}

// Annotate stacks a marker on the current photo. On failure the photo is left
// as it was.
func (d *Draft) Annotate(a Annotator, at imaging.Point) error {
	if d.photo.Empty() {
		return ErrNoPhoto
	}
	next, err := a.Annotate(d.photo, at)
	if err != nil {
		return fmt.Errorf("annotate draft photo: %w", err)
	}
	d.photo = next
	return nil
}

// ResetPhoto drops every marker and restores the original capture.
func (d *Draft) ResetPhoto() {
	d.photo = d.captured
}

// ClearPhoto removes the photo entirely.
func (d *Draft) ClearPhoto() {
	d.photo = imaging.Photo{}
	d.captured = imaging.Photo{}
}

// Annotated reports whether markers have been drawn since capture.
func (d *Draft) Annotated() bool {
	return !bytes.Equal(d.photo.Data, d.captured.Data)
}

// Builder assigns identifiers to finalized entries.
type Builder struct {
	newID func() (string, error)
}

// NewBuilder returns a builder issuing time-ordered UUIDs.
func NewBuilder() *Builder {
	return &Builder{newID: func() (string, error) {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}}
}

// Finalize validates the draft and returns an entry with a fresh identifier.
// A blank title is the only way a well-formed draft can fail.
func (b *Builder) Finalize(d Draft) (DefectEntry, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return DefectEntry{}, ErrEmptyTitle
	}
	if !d.Team.Valid() {
		return DefectEntry{}, fmt.Errorf("%w: %q", ErrInvalidTeam, d.Team)
	}
	if !d.Grade.Valid() {
		return DefectEntry{}, fmt.Errorf("%w: %q", ErrInvalidGrade, d.Grade)
	}
	id, err := b.newID()
	if err != nil {
		return DefectEntry{}, fmt.Errorf("generate entry id: %w", err)
	}
	return DefectEntry{
		ID:       EntryID(id),
		Team:     d.Team,
		Title:    title,
		Grade:    d.Grade,
		Note:     d.Note,
		Photo:    d.photo.DataURL(),
		IsCustom: d.IsCustom,
	}, nil
}

package inspection_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
)

func finalize(t *testing.T, b *inspection.Builder, d inspection.Draft) inspection.DefectEntry {
	t.Helper()
	entry, err := b.Finalize(d)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return entry
}

func TestFinalizeEmptyTitle(t *testing.T) {
	b := inspection.NewBuilder()
	for _, title := range []string{"", "   ", "\t\n"} {
		d := inspection.FromCustom(inspection.TeamBed)
		d.Title = title
		if _, err := b.Finalize(d); !errors.Is(err, inspection.ErrEmptyTitle) {
			t.Fatalf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
	for _, grade := range []inspection.Grade{inspection.GradeA, inspection.GradeB, inspection.GradeC} {
		d := inspection.FromCustom(inspection.TeamWater)
		d.Title = " x "
		d.Grade = grade
		entry := finalize(t, b, d)
		if entry.Title != "x" || entry.Grade != grade || !entry.IsCustom {
			t.Fatalf("unexpected entry %+v", entry)
		}
	}
}

func TestFinalizeAssignsUniqueIDs(t *testing.T) {
	b := inspection.NewBuilder()
	seen := map[inspection.EntryID]bool{}
	for i := 0; i < 500; i++ {
		entry := finalize(t, b, inspection.FromTemplate(inspection.TeamBed, "備品過期", inspection.GradeB))
		if entry.ID == "" || seen[entry.ID] {
			t.Fatalf("duplicate or empty id %q", entry.ID)
		}
		seen[entry.ID] = true
	}
}

func TestDraftDefaults(t *testing.T) {
	tpl := inspection.FromTemplate(inspection.TeamWater, "垃圾桶未清", inspection.GradeA)
	if tpl.IsCustom || tpl.Note != "" || !tpl.Photo().Empty() || tpl.Grade != inspection.GradeA {
		t.Fatalf("unexpected template draft %+v", tpl)
	}
	custom := inspection.FromCustom(inspection.TeamBed)
	if !custom.IsCustom || custom.Title != "" || custom.Grade != inspection.GradeC {
		t.Fatalf("unexpected custom draft %+v", custom)
	}
}

type stubAnnotator struct {
	calls int
	fail  bool
}

func (s *stubAnnotator) Annotate(p imaging.Photo, _ imaging.Point) (imaging.Photo, error) {
	s.calls++
	if s.fail {
		return imaging.Photo{}, errors.New("boom")
	}
	return imaging.Photo{Data: append(append([]byte(nil), p.Data...), 'x'), Width: p.Width, Height: p.Height}, nil
}

func TestDraftAnnotateStacksAndResets(t *testing.T) {
	d := inspection.FromCustom(inspection.TeamBed)
	a := &stubAnnotator{}
	if err := d.Annotate(a, imaging.Point{}); !errors.Is(err, inspection.ErrNoPhoto) {
		t.Fatalf("expected ErrNoPhoto, got %v", err)
	}
	d.AttachPhoto(imaging.Photo{Data: []byte("img"), Width: 1, Height: 1})
	for i := 0; i < 2; i++ {
		if err := d.Annotate(a, imaging.Point{X: float64(i)}); err != nil {
			t.Fatalf("Annotate: %v", err)
		}
	}
	if string(d.Photo().Data) != "imgxx" || !d.Annotated() {
		t.Fatalf("expected cumulative markers, got %q", d.Photo().Data)
	}

	a.fail = true
	if err := d.Annotate(a, imaging.Point{}); err == nil {
		t.Fatal("expected annotate failure")
	}
	if string(d.Photo().Data) != "imgxx" {
		t.Fatalf("failed annotate changed photo: %q", d.Photo().Data)
	}

	d.ResetPhoto()
	if string(d.Photo().Data) != "img" || d.Annotated() {
		t.Fatalf("reset did not restore capture: %q", d.Photo().Data)
	}
	d.ClearPhoto()
	if !d.Photo().Empty() {
		t.Fatal("expected no photo after clear")
	}
}

func TestSessionSummarizeTracksEntries(t *testing.T) {
	b := inspection.NewBuilder()
	s := inspection.NewSession("201", "Amy")
	check := func() {
		t.Helper()
		sum := s.Summarize()
		severe := false
		for _, e := range s.Entries {
			severe = severe || e.Grade == inspection.GradeA
		}
		if sum.IssueCount != len(s.Entries) || sum.HasSevere != severe {
			t.Fatalf("summary %+v inconsistent with %d entries", sum, len(s.Entries))
		}
	}
	check()
	c := finalize(t, b, inspection.FromTemplate(inspection.TeamBed, "枕頭/抱枕擺放", inspection.GradeC))
	s.AddEntry(c)
	check()
	a := finalize(t, b, inspection.FromTemplate(inspection.TeamWater, "馬桶汙垢/尿漬", inspection.GradeA))
	s.AddEntry(a)
	s.AddEntry(finalize(t, b, inspection.FromTemplate(inspection.TeamBed, "枕頭/抱枕擺放", inspection.GradeC)))
	check()
	if !s.Summarize().HasSevere {
		t.Fatal("expected severe flag")
	}
	if !s.RemoveEntry(a.ID) {
		t.Fatal("expected removal")
	}
	check()
	if s.RemoveEntry(a.ID) {
		t.Fatal("second removal should be a no-op")
	}
	if s.Summarize().HasSevere || s.Summarize().IssueCount != 2 {
		t.Fatalf("unexpected summary %+v", s.Summarize())
	}
	if s.Entries[0].ID != c.ID {
		t.Fatal("insertion order not preserved")
	}
}

func TestSessionValidate(t *testing.T) {
	rooms := inspection.DefaultRegistry()
	cases := []struct {
		room, inspector string
		want            error
	}{
		{"", "Amy", inspection.ErrMissingRoom},
		{"201", " ", inspection.ErrMissingInspector},
		{"404", "Amy", inspection.ErrUnknownRoom},
		{"511", "Amy", inspection.ErrUnknownRoom},
		{"412", "Amy", nil},
	}
	for _, tc := range cases {
		s := inspection.NewSession(tc.room, tc.inspector)
		if err := s.Validate(rooms); !errors.Is(err, tc.want) {
			t.Fatalf("%s/%s: expected %v, got %v", tc.room, tc.inspector, tc.want, err)
		}
		if tc.want == nil && !s.CanSubmit() {
			t.Fatalf("%s should be submittable", tc.room)
		}
	}
	if err := inspection.NewSession("999", "Amy").Validate(nil); err != nil {
		t.Fatalf("nil registry should skip lookup: %v", err)
	}
	if inspection.NewSession("201", "").CanSubmit() {
		t.Fatal("missing inspector should block submit")
	}
}

func TestSessionValidateRejectsRepeatedEntryIDs(t *testing.T) {
	s := inspection.NewSession("201", "Amy")
	s.AddEntry(inspection.DefectEntry{ID: "e1", Team: inspection.TeamBed, Title: "毛髮", Grade: inspection.GradeA})
	s.AddEntry(inspection.DefectEntry{ID: "e1", Team: inspection.TeamWater, Title: "水垢", Grade: inspection.GradeB})
	err := s.Validate(nil)
	if !errors.Is(err, inspection.ErrDuplicateEntry) || !inspection.IsValidation(err) {
		t.Fatalf("expected duplicate entry validation error, got %v", err)
	}
	s.Entries[1].ID = "e2"
	if err := s.Validate(nil); err != nil {
		t.Fatalf("distinct ids should validate: %v", err)
	}
}

func TestFromRecordIsCopyAndKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 3, 30, 23, 0, 0, 0, time.UTC)
	rec := inspection.Record{
		ID:        "rec-1",
		CreatedAt: created,
		RoomID:    "301",
		Inspector: "Amy",
		Issues:    []inspection.DefectEntry{{ID: "e1", Team: inspection.TeamBed, Title: "t", Grade: inspection.GradeB}},
		MonthKey:  "2024-03",
	}
	s := inspection.FromRecord(rec)
	s.Entries[0].Title = "changed"
	s.BedStaff = "Ben"
	if rec.Issues[0].Title != "t" {
		t.Fatal("session aliases record entries")
	}
	if !s.IsEdit() || s.RecordID() != "rec-1" || !s.CreatedAt().Equal(created) {
		t.Fatalf("lost record identity: %q %v", s.RecordID(), s.CreatedAt())
	}

	out := s.ToRecord(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	if out.ID != "rec-1" || out.MonthKey != "2024-03" || !out.CreatedAt.Equal(created) {
		t.Fatalf("edit should keep id, month and createdAt: %+v", out)
	}
	if out.BedStaff != "Ben" || out.IssueCount != 1 || out.HasGradeA {
		t.Fatalf("unexpected record %+v", out)
	}

	fresh := inspection.NewSession("201", "Amy").ToRecord(time.Date(2024, 5, 31, 23, 30, 0, 0, time.FixedZone("x", -3600)))
	if fresh.ID != "" || fresh.MonthKey != "2024-06" {
		t.Fatalf("new record month key should be UTC: %+v", fresh)
	}
}

func TestRegistryLayout(t *testing.T) {
	rooms := inspection.DefaultRegistry()
	all := rooms.Rooms()
	if len(all) != 13+13+11+12 {
		t.Fatalf("unexpected room count %d", len(all))
	}
	if all[0] != "201" || all[len(all)-1] != "513" {
		t.Fatalf("unexpected ordering %v..%v", all[0], all[len(all)-1])
	}
	floors := rooms.Floors()
	floors[0].Rooms[0] = "mutated"
	if rooms.Rooms()[0] != "201" {
		t.Fatal("Floors leaked internal state")
	}
}

func TestTemplates(t *testing.T) {
	bed := inspection.Templates(inspection.TeamBed)
	water := inspection.Templates(inspection.TeamWater)
	if len(bed) != 13 || len(water) != 13 {
		t.Fatalf("unexpected template counts %d/%d", len(bed), len(water))
	}
	for _, tpl := range append(bed, water...) {
		if tpl.Label == "" || !tpl.Grade.Valid() {
			t.Fatalf("bad template %+v", tpl)
		}
	}
	if tpl, ok := inspection.FindTemplate(inspection.TeamWater, "溫泉水質/溫度"); !ok || tpl.Grade != inspection.GradeB {
		t.Fatalf("lookup failed: %+v %v", tpl, ok)
	}
	if inspection.Templates("kitchen") != nil {
		t.Fatal("unknown team should have no templates")
	}
}

func TestRecordDecodesLegacyDocument(t *testing.T) {
	body := `{"roomId":"203","inspector":"Amy","bedStaff":"","waterStaff":"Cid",
		"issues":[{"id":1717000000000,"team":"water","title":"地板濕滑/積水","grade":"A","note":"","photo":null,"isCustom":false}],
		"issueCount":1,"hasGradeA":true}`
	var rec inspection.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Issues[0].ID != "1717000000000" || rec.Issues[0].HasPhoto() {
		t.Fatalf("unexpected entry %+v", rec.Issues[0])
	}
	if rec.MonthKey != "" || rec.DefectCount() != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestParseHelpers(t *testing.T) {
	if g, err := inspection.ParseGrade(" b "); err != nil || g != inspection.GradeB {
		t.Fatalf("ParseGrade: %v %v", g, err)
	}
	if _, err := inspection.ParseGrade("D"); !errors.Is(err, inspection.ErrInvalidGrade) {
		t.Fatalf("expected ErrInvalidGrade, got %v", err)
	}
	if _, err := inspection.ParseTeam("kitchen"); !inspection.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s, err := inspection.ParseSlot("WATER"); err != nil || s.Field() != "waterStaff" {
		t.Fatalf("ParseSlot: %v %v", s, err)
	}
}

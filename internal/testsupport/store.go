package testsupport

import (
	"context"
	"testing"

	"roomcheck/internal/config"
	"roomcheck/internal/identity"
	"roomcheck/internal/inspection"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// MustConnect builds a connected adapter over st.
func MustConnect(t testing.TB, cfg *config.Config, st recordsync.DocumentStore) *recordsync.Adapter {
	t.Helper()

	adapter := recordsync.New(st, identity.NewLocal(cfg), recordsync.OptionsFromConfig(cfg))
	if _, err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("adapter.Connect: %v", err)
	}
	return adapter
}

// NewSession builds a submittable session with one entry per title. Titles are
// finalized as bed-team grade B defects unless grade is given.
func NewSession(t testing.TB, room, inspector string, grade inspection.Grade, titles ...string) *inspection.Session {
	t.Helper()

	if grade == "" {
		grade = inspection.GradeB
	}
	s := inspection.NewSession(room, inspector)
	b := inspection.NewBuilder()
	for _, title := range titles {
		entry, err := b.Finalize(inspection.FromTemplate(inspection.TeamBed, title, grade))
		if err != nil {
			t.Fatalf("Finalize %q: %v", title, err)
		}
		s.AddEntry(entry)
	}
	return s
}

// MustSubmit submits s and returns the record id.
func MustSubmit(t testing.TB, adapter *recordsync.Adapter, s *inspection.Session) string {
	t.Helper()

	id, err := adapter.Submit(context.Background(), s)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

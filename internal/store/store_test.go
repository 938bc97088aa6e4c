package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"roomcheck/internal/store"
)

func openTestStore(t *testing.T, path string, opts ...store.Option) *store.Store {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "roomcheck.db")
	}
	s, err := store.OpenPath(path, opts...)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func decodeBody(t *testing.T, doc store.Document) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(doc.Data, &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s := openTestStore(t, "", store.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	a, err := s.Create(ctx, "c", json.RawMessage(`{"roomId":"201"}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := s.Create(ctx, "c", json.RawMessage(`{"roomId":"202"}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	got, err := s.Get(ctx, "c", a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected created_at %v", got.CreatedAt)
	}
	if decodeBody(t, got)["roomId"] != "201" {
		t.Fatalf("unexpected body %s", got.Data)
	}
	if _, err := s.Create(ctx, "c", json.RawMessage(`[1,2]`)); !errors.Is(err, store.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestReplaceKeepsCreatedAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s := openTestStore(t, "", store.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	doc, err := s.Create(ctx, "c", json.RawMessage(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	now = now.Add(48 * time.Hour)
	if err := s.Replace(ctx, "c", doc.ID, json.RawMessage(`{"a":3}`)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := s.Get(ctx, "c", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body := decodeBody(t, got)
	if _, ok := body["b"]; ok || body["a"] != float64(3) {
		t.Fatalf("replace should overwrite the whole body, got %s", got.Data)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps wrong: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}
	if err := s.Replace(ctx, "c", "missing", json.RawMessage(`{}`)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMergesTopLevelFields(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	doc, err := s.Create(ctx, "c", json.RawMessage(`{"bedStaff":"","waterStaff":"Cid","issues":[{"id":"1"}]}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "c", doc.ID, map[string]any{"bedStaff": "Ben"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, "c", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body := decodeBody(t, got)
	if body["bedStaff"] != "Ben" || body["waterStaff"] != "Cid" {
		t.Fatalf("unexpected body %s", got.Data)
	}
	if issues, ok := body["issues"].([]any); !ok || len(issues) != 1 {
		t.Fatalf("issues disturbed: %s", got.Data)
	}
	if err := s.Update(ctx, "c", "missing", map[string]any{"x": 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		doc, err := s.Create(ctx, "c", json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, doc.ID)
	}
	if _, err := s.Create(ctx, "other", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if removed, err := s.Delete(ctx, "c", ids[1]); err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	if removed, err := s.Delete(ctx, "c", ids[1]); err != nil || removed {
		t.Fatalf("second Delete should be a no-op: removed=%v err=%v", removed, err)
	}
	docs, err := s.List(ctx, "c")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != ids[0] || docs[1].ID != ids[2] {
		t.Fatalf("unexpected list %+v", docs)
	}
	if _, err := s.Get(ctx, "c", ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImportKeepsIDsAndMissingTimestamps(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	created := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.Import(ctx, "c", []store.Document{
		{ID: "legacy-1", Data: json.RawMessage(`{"roomId":"201"}`)},
		{ID: "legacy-2", Data: json.RawMessage(`{"roomId":"202"}`), CreatedAt: created},
	})
	if err != nil || n != 2 {
		t.Fatalf("Import: %d %v", n, err)
	}
	one, err := s.Get(ctx, "c", "legacy-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !one.CreatedAt.IsZero() {
		t.Fatalf("expected zero created_at, got %v", one.CreatedAt)
	}
	two, err := s.Get(ctx, "c", "legacy-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !two.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at %v", two.CreatedAt)
	}
	if _, err := s.Import(ctx, "c", []store.Document{{Data: json.RawMessage(`{}`)}}); err == nil {
		t.Fatal("expected error for document without id")
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomcheck.db")
	rw := openTestStore(t, path)
	doc, err := rw.Create(context.Background(), "c", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ro := openTestStore(t, path, store.WithReadOnly(true))
	ctx := context.Background()
	if _, err := ro.Create(ctx, "c", json.RawMessage(`{}`)); !errors.Is(err, store.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := ro.Update(ctx, "c", doc.ID, map[string]any{"a": 1}); !errors.Is(err, store.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if _, err := ro.Get(ctx, "c", doc.ID); err != nil {
		t.Fatalf("reads should still work: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := openTestStore(t, "")
	if _, err := s.Create(context.Background(), store.InspectionsCollection("app"), json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h := s.CheckHealth(context.Background())
	if !h.Exists || !h.IntegrityOK || h.SchemaVersion != 1 || h.Error != "" {
		t.Fatalf("unexpected health %+v", h)
	}
	if h.Collections["artifacts/app/public/data/inspections"] != 1 {
		t.Fatalf("unexpected counts %+v", h.Collections)
	}
}

func TestCollectionPaths(t *testing.T) {
	if got := store.InspectionsCollection("hotel"); got != "artifacts/hotel/public/data/inspections" {
		t.Fatalf("unexpected inspections path %q", got)
	}
	if got := store.SettingsCollection("hotel") + "/" + store.StaffListID; got != "artifacts/hotel/public/data/settings/staff_list" {
		t.Fatalf("unexpected roster path %q", got)
	}
}

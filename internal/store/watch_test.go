package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"roomcheck/internal/store"
)

func waitSignal(t *testing.T, w *store.Watcher, within time.Duration) bool {
	t.Helper()
	select {
	case _, ok := <-w.C():
		return ok
	case <-time.After(within):
		return false
	}
}

func TestWatchSignalsLocalWrites(t *testing.T) {
	s := openTestStore(t, "", store.WithWatchInterval(0))
	w := s.Watch("c")
	defer w.Close()
	other := s.Watch("other")
	defer other.Close()

	if _, err := s.Create(context.Background(), "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !waitSignal(t, w, time.Second) {
		t.Fatal("expected signal for watched collection")
	}
	if waitSignal(t, other, 50*time.Millisecond) {
		t.Fatal("unrelated collection should not be signalled")
	}
}

func TestWatchCoalescesSignals(t *testing.T) {
	s := openTestStore(t, "", store.WithWatchInterval(0))
	w := s.Watch("c")
	defer w.Close()
	for i := 0; i < 5; i++ {
		if _, err := s.Create(context.Background(), "c", json.RawMessage(`{}`)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if !waitSignal(t, w, time.Second) {
		t.Fatal("expected a pending signal")
	}
	if waitSignal(t, w, 50*time.Millisecond) {
		t.Fatal("signals should coalesce into one")
	}
}

func TestWatchDetectsOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	reader := openTestStore(t, path, store.WithWatchInterval(10*time.Millisecond))
	writer := openTestStore(t, path, store.WithWatchInterval(0))

	w := reader.Watch("c")
	defer w.Close()

	if _, err := writer.Create(context.Background(), "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !waitSignal(t, w, 2*time.Second) {
		t.Fatal("expected signal for write from another handle")
	}
}

func TestWatchDetectsOtherConnectionsAfterRewatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	reader := openTestStore(t, path, store.WithWatchInterval(10*time.Millisecond))
	writer := openTestStore(t, path, store.WithWatchInterval(0))
	ctx := context.Background()

	first := reader.Watch("c")
	if _, err := writer.Create(ctx, "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !waitSignal(t, first, 2*time.Second) {
		t.Fatal("expected signal for first write")
	}
	first.Close()

	// Written while nobody watches; the next watcher's snapshot covers it.
	if _, err := writer.Create(ctx, "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := reader.Watch("c")
	defer second.Close()
	if _, err := writer.Create(ctx, "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !waitSignal(t, second, 2*time.Second) {
		t.Fatal("expected signal for write issued right after Watch")
	}
}

func TestWatchCloseStopsSignals(t *testing.T) {
	s := openTestStore(t, "", store.WithWatchInterval(0))
	w := s.Watch("c")
	w.Close()
	w.Close()
	if _, ok := <-w.C(); ok {
		t.Fatal("expected closed channel")
	}
	if _, err := s.Create(context.Background(), "c", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Create after watcher close: %v", err)
	}
}

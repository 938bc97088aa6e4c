package roster_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"roomcheck/internal/inspection"
	"roomcheck/internal/roster"
	"roomcheck/internal/testsupport"
)

func TestLoadReturnsSeedWhenMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRoster([]string{"carl", " Alice ", "bob", "Alice"}, nil))
	svc := roster.New(testsupport.MustOpenStore(t, cfg), cfg)

	r, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"Alice", "bob", "carl"}; !slices.Equal(r.Bed, want) {
		t.Fatalf("expected %v, got %v", want, r.Bed)
	}
	if len(r.Water) != 0 {
		t.Fatalf("expected empty water list, got %v", r.Water)
	}
}

func TestAddAndRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := roster.New(testsupport.MustOpenStore(t, cfg), cfg)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "Mia", inspection.SlotBed); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add(ctx, "Mia", inspection.SlotBed); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	r, err := svc.Add(ctx, "Lee", roster.All)
	if err != nil {
		t.Fatalf("Add all: %v", err)
	}
	if want := []string{"Lee", "Mia"}; !slices.Equal(r.Bed, want) {
		t.Fatalf("bed: expected %v, got %v", want, r.Bed)
	}
	if want := []string{"Lee"}; !slices.Equal(r.Water, want) {
		t.Fatalf("water: expected %v, got %v", want, r.Water)
	}

	r, err = svc.Remove(ctx, "Lee")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if slices.Contains(r.Bed, "Lee") || slices.Contains(r.Water, "Lee") {
		t.Fatalf("expected Lee removed from both lists, got %+v", r)
	}

	reloaded, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(reloaded.Bed, []string{"Mia"}) {
		t.Fatalf("persisted roster mismatch: %+v", reloaded)
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := roster.New(testsupport.MustOpenStore(t, cfg), cfg)
	if _, err := svc.Add(context.Background(), "  ", roster.All); !errors.Is(err, roster.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestWriteGateBlocksChanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gateErr := errors.New("offline")
	svc := roster.New(testsupport.MustOpenStore(t, cfg), cfg, roster.WithWriteGate(func() error { return gateErr }))
	if _, err := svc.Add(context.Background(), "Mia", inspection.SlotBed); !errors.Is(err, gateErr) {
		t.Fatalf("expected gate error, got %v", err)
	}
}

func TestNamesAndSearch(t *testing.T) {
	r := roster.Roster{Bed: []string{"Amy", "Ben"}, Water: []string{"ben", "Cara", "Amy"}}

	if got := r.Names(roster.All); !slices.Equal(got, []string{"Amy", "ben", "Ben", "Cara"}) && !slices.Equal(got, []string{"Amy", "Ben", "ben", "Cara"}) {
		t.Fatalf("unexpected union %v", got)
	}
	if got := r.Search(inspection.SlotWater, "BE"); !slices.Equal(got, []string{"ben"}) {
		t.Fatalf("unexpected search result %v", got)
	}
	if got := r.Search(inspection.SlotBed, ""); !slices.Equal(got, r.Bed) {
		t.Fatalf("empty query should return the list, got %v", got)
	}
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]inspection.StaffSlot{"ALL": roster.All, "bed": inspection.SlotBed, " water ": inspection.SlotWater} {
		got, err := roster.ParseTarget(in)
		if err != nil || got != want {
			t.Fatalf("ParseTarget(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := roster.ParseTarget("chef"); !errors.Is(err, inspection.ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

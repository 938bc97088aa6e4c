package imaging_test

import (
	"errors"
	"math"
	"testing"

	"roomcheck/internal/imaging"
)

func TestMapClickScalesAxesIndependently(t *testing.T) {
	got, err := imaging.MapClick(imaging.Size{W: 400, H: 150}, imaging.Point{X: 100, Y: 75}, imaging.Size{W: 800, H: 600})
	if err != nil {
		t.Fatalf("MapClick: %v", err)
	}
	if got.X != 200 || got.Y != 300 {
		t.Fatalf("unexpected mapping %+v", got)
	}
}

func TestMapClickRoundTrip(t *testing.T) {
	cases := []struct {
		display imaging.Size
		native  imaging.Size
		click   imaging.Point
	}{
		{imaging.Size{W: 375, H: 281}, imaging.Size{W: 800, H: 600}, imaging.Point{X: 12.5, Y: 200}},
		{imaging.Size{W: 1024, H: 768}, imaging.Size{W: 800, H: 600}, imaging.Point{X: 1023, Y: 0}},
		{imaging.Size{W: 800, H: 600}, imaging.Size{W: 800, H: 600}, imaging.Point{X: 400, Y: 300}},
	}
	for _, tc := range cases {
		mapped, err := imaging.MapClick(tc.display, tc.click, tc.native)
		if err != nil {
			t.Fatalf("MapClick: %v", err)
		}
		back, err := imaging.Unmap(tc.display, mapped, tc.native)
		if err != nil {
			t.Fatalf("Unmap: %v", err)
		}
		if math.Abs(back.X-tc.click.X) > 1e-9 || math.Abs(back.Y-tc.click.Y) > 1e-9 {
			t.Fatalf("round trip drifted: %+v -> %+v", tc.click, back)
		}
	}
}

func TestMapClickBeforeLoad(t *testing.T) {
	if _, err := imaging.MapClick(imaging.Size{W: 100, H: 100}, imaging.Point{}, imaging.Size{}); !errors.Is(err, imaging.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := imaging.MapClick(imaging.Size{}, imaging.Point{}, imaging.Size{W: 1, H: 1}); !errors.Is(err, imaging.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestMapUniform(t *testing.T) {
	got, err := imaging.MapUniform(imaging.Point{X: 50, Y: 80}, 400, 800)
	if err != nil {
		t.Fatalf("MapUniform: %v", err)
	}
	if got.X != 100 || got.Y != 160 {
		t.Fatalf("unexpected mapping %+v", got)
	}
	if _, err := imaging.MapUniform(imaging.Point{}, 0, 800); !errors.Is(err, imaging.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

package ari

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	in := time.Date(2026, 3, 14, 23, 45, 12, 999, time.FixedZone("X", 3*3600))
	got := NormalizeDate(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NormalizeDate() = %v, want %v", got, want)
	}
}

func TestNights(t *testing.T) {
	ci := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	co := time.Date(2026, 7, 4, 11, 0, 0, 0, time.UTC)
	if n := Nights(ci, co); n != 3 {
		t.Errorf("Nights() = %d, want 3", n)
	}
	if n := Nights(co, ci); n != 0 {
		t.Errorf("Nights() reversed = %d, want 0", n)
	}
}

func TestDatesBetween(t *testing.T) {
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	got := DatesBetween(from, to)
	if len(got) != 3 {
		t.Fatalf("DatesBetween() len = %d, want 3", len(got))
	}
	if !got[0].Equal(from) || !got[2].Equal(to) {
		t.Errorf("DatesBetween() bounds = %v .. %v", got[0], got[2])
	}
	if DatesBetween(to, from) != nil {
		t.Error("DatesBetween() with reversed bounds should be nil")
	}
}

func TestStayDates(t *testing.T) {
	ci := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	co := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	got := StayDates(ci, co)
	if len(got) != 3 {
		t.Fatalf("StayDates() len = %d, want 3", len(got))
	}
	// checkout day itself is not a night
	last := got[len(got)-1]
	if !last.Equal(time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StayDates() last night = %v", last)
	}
}

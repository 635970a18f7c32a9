package domain

import (
	"testing"
	"time"
)

func TestDateOnlyNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2025, time.March, 15, 2, 30, 0, 0, loc)

	got := DateOnly(in)
	want := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMonthWindowCoversWholeMonth(t *testing.T) {
	from, to := MonthWindow(12, 2025)

	if want := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Fatalf("expected from %v, got %v", want, from)
	}
	if want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC); !to.Equal(want) {
		t.Fatalf("expected to %v, got %v", want, to)
	}

	lastDay := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	if !(lastDay.Compare(from) >= 0 && lastDay.Before(to)) {
		t.Fatalf("expected %v inside window [%v, %v)", lastDay, from, to)
	}
}

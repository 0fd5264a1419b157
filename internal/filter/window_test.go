package filter

import (
	"testing"
	"time"

	"sheetcal/internal/models"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func eventOn(id string, start time.Time) models.Event {
	return models.Event{ID: id, StartDate: start, EndDate: start.Add(time.Hour)}
}

func ids(events []models.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func sameIDs(a []models.Event, want ...string) bool {
	got := ids(a)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestFilter_Week(t *testing.T) {
	t.Parallel()

	now := at(2025, 6, 25, 15, 0) // Wednesday
	events := []models.Event{
		eventOn("sun", at(2025, 6, 22, 23, 59)),
		eventOn("sat", at(2025, 6, 28, 0, 0)),
		eventOn("next-sun", at(2025, 6, 29, 0, 0)),
		eventOn("prev-sat", at(2025, 6, 21, 12, 0)),
	}

	got := Filter(events, Week, now)
	if !sameIDs(got, "sun", "sat") {
		t.Fatalf("expected [sun sat], got %v", ids(got))
	}
}

func TestFilter_QuarterBoundary(t *testing.T) {
	t.Parallel()

	now := at(2025, 2, 10, 9, 0)
	events := []models.Event{
		eventOn("jan-1", at(2025, 1, 1, 0, 0)),
		eventOn("mar-31", at(2025, 3, 31, 22, 0)),
		eventOn("apr-1", at(2025, 4, 1, 0, 0)),
	}

	got := Filter(events, Quarter, now)
	if !sameIDs(got, "jan-1", "mar-31") {
		t.Fatalf("expected [jan-1 mar-31], got %v", ids(got))
	}
}

func TestFilter_Windows(t *testing.T) {
	t.Parallel()

	now := at(2025, 12, 15, 8, 0)
	events := []models.Event{
		eventOn("today", at(2025, 12, 15, 23, 0)),
		eventOn("dec-1", at(2025, 12, 1, 0, 0)),
		eventOn("dec-31", at(2025, 12, 31, 18, 0)),
		eventOn("jan-1", at(2026, 1, 1, 0, 0)),
		eventOn("jan-31", at(2026, 1, 31, 12, 0)),
		eventOn("feb-1", at(2026, 2, 1, 0, 0)),
		eventOn("oct-1", at(2025, 10, 1, 0, 0)),
	}

	tests := []struct {
		window Window
		want   []string
	}{
		{window: Today, want: []string{"today"}},
		{window: Month, want: []string{"today", "dec-1", "dec-31"}},
		{window: NextMonth, want: []string{"jan-1", "jan-31"}},
		{window: Quarter, want: []string{"today", "dec-1", "dec-31", "oct-1"}},
		{window: All, want: []string{"today", "dec-1", "dec-31", "jan-1", "jan-31", "feb-1", "oct-1"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.window), func(t *testing.T) {
			t.Parallel()
			got := Filter(events, tt.window, now)
			if !sameIDs(got, tt.want...) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
			if n := Count(events, tt.window, now); n != len(got) {
				t.Fatalf("expected count %d to match filter, got %d", len(got), n)
			}
		})
	}
}

func TestFilter_IgnoresEndDate(t *testing.T) {
	t.Parallel()

	now := at(2025, 6, 25, 12, 0)
	long := models.Event{ID: "long", StartDate: at(2025, 1, 1, 0, 0), EndDate: at(2025, 12, 31, 0, 0)}

	if got := Filter([]models.Event{long}, Today, now); len(got) != 0 {
		t.Fatalf("expected multi-day event starting in the past to be excluded, got %v", ids(got))
	}
}

func TestFilter_AllIsIdentity(t *testing.T) {
	t.Parallel()

	events := []models.Event{eventOn("b", at(2030, 1, 1, 0, 0)), eventOn("a", at(1999, 1, 1, 0, 0))}
	got := Filter(events, All, at(2025, 1, 1, 0, 0))
	if !sameIDs(got, "b", "a") {
		t.Fatalf("expected identity, got %v", ids(got))
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	events := []models.Event{eventOn("x", at(2020, 1, 1, 0, 0)), eventOn("y", at(2025, 6, 25, 0, 0))}
	_ = Filter(events, Today, at(2025, 6, 25, 10, 0))
	if !sameIDs(events, "x", "y") {
		t.Fatalf("input was modified: %v", ids(events))
	}
}

func TestCounts(t *testing.T) {
	t.Parallel()

	now := at(2025, 6, 25, 15, 0)
	events := []models.Event{
		eventOn("today", at(2025, 6, 25, 9, 0)),
		eventOn("july", at(2025, 7, 4, 9, 0)),
	}

	counts := Counts(events, now)
	want := map[Window]int{All: 2, Today: 1, Week: 1, Month: 1, NextMonth: 1, Quarter: 1}
	for w, n := range want {
		if counts[w] != n {
			t.Fatalf("expected %s count %d, got %d", w, n, counts[w])
		}
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "", want: All},
		{in: "week", want: Week},
		{in: "NextMonth", want: NextMonth},
		{in: " quarter ", want: Quarter},
		{in: "year", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("expected %s for %q, got %s", tt.want, tt.in, got)
		}
	}
}

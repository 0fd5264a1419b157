package filter

import (
	"fmt"
	"strings"
	"time"

	"sheetcal/internal/models"
)

// Window is a named, now-relative date range.
type Window string

const (
	All       Window = "all"
	Today     Window = "today"
	Week      Window = "week"
	Month     Window = "month"
	NextMonth Window = "nextMonth"
	Quarter   Window = "quarter"
)

// Windows lists every window in display order.
func Windows() []Window {
	return []Window{All, Today, Week, Month, NextMonth, Quarter}
}

// ParseWindow maps user input to a Window. Empty input selects All.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All, nil
	}
	for _, w := range Windows() {
		if strings.EqualFold(s, string(w)) {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown window %q", s)
}

// Range is an inclusive span of calendar dates, both ends at midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies in r.
func (r Range) Contains(t time.Time) bool {
	d := dateOf(t, r.Start.Location())
	return !d.Before(r.Start) && !d.After(r.End)
}

// Bounds computes the window's date range relative to now, in now's zone.
// All has no bounds and reports false.
func (w Window) Bounds(now time.Time) (Range, bool) {
	loc := now.Location()
	today := dateOf(now, loc)
	y, m := today.Year(), today.Month()

	switch w {
	case Today:
		return Range{Start: today, End: today}, true
	case Week:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return Range{Start: start, End: start.AddDate(0, 0, 6)}, true
	case Month:
		return monthRange(y, m, 1, loc), true
	case NextMonth:
		return monthRange(y, m+1, 1, loc), true
	case Quarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return monthRange(y, first, 3, loc), true
	default:
		return Range{}, false
	}
}

// monthRange spans n calendar months starting at the first of month m.
// time.Date normalizes month overflow into the following year.
func monthRange(y int, m time.Month, n int, loc *time.Location) Range {
	return Range{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		End:   time.Date(y, m+time.Month(n), 0, 0, 0, 0, 0, loc),
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	return models.StartOfDay(t.In(loc))
}

// Filter returns the events whose start date falls inside w. Only the date
// part of StartDate is inspected; EndDate is ignored. All returns events unchanged.
func Filter(events []models.Event, w Window, now time.Time) []models.Event {
	r, ok := w.Bounds(now)
	if !ok {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if r.Contains(e.StartDate) {
			out = append(out, e)
		}
	}
	return out
}

// Count is the number of events Filter would return.
func Count(events []models.Event, w Window, now time.Time) int {
	return len(Filter(events, w, now))
}

// Counts returns Count for every window.
func Counts(events []models.Event, now time.Time) map[Window]int {
	out := make(map[Window]int, len(Windows()))
	for _, w := range Windows() {
		out[w] = Count(events, w, now)
	}
	return out
}

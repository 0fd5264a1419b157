package models

import (
	"strings"
	"time"
)

// UntitledEvent is the title given to events saved without one.
const UntitledEvent = "Untitled Event"

// Frequency is the stored repeat cadence of an event. It is metadata only;
// events are never expanded into concrete occurrences.
type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency maps a stored value to a Frequency. Unknown values map to FrequencyNone.
func ParseFrequency(s string) Frequency {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily
	case FrequencyWeekly:
		return FrequencyWeekly
	case FrequencyMonthly:
		return FrequencyMonthly
	default:
		return FrequencyNone
	}
}

// Repeat describes how an event repeats.
type Repeat struct {
	Frequency Frequency
	Until     *time.Time
}

// Attendee is a named participant. Avatar is currently always empty.
type Attendee struct {
	Name   string
	Avatar string
}

// Event represents a calendar event as shown on the shared calendar.
// Optional text fields use the empty string for "absent".
type Event struct {
	ID        string    // Stable identifier (GUID column or generated uuid)
	Title     string    // Display title
	StartDate time.Time // Start date and time of day
	EndDate   time.Time // End date and time of day; not validated against StartDate
	IsAllDay  bool
	Tags      []string // Uppercase category codes, order preserved
	Attendees []Attendee
	Repeat    *Repeat // nil when the event does not repeat

	HostOrganization string
	Location         string
	Link             string
	Notes            string

	Status   string // Moderation status as stored in the sheet
	IsPaid   bool
	Cost     string
	ImageURL string
	EventURL string
}

// Normalized returns a copy of e prepared for saving: placeholder title,
// uppercased unique tags, and all-day events spanning their whole days.
func (e Event) Normalized() Event {
	out := e
	if strings.TrimSpace(out.Title) == "" {
		out.Title = UntitledEvent
	}
	out.Tags = NormalizeTags(e.Tags)
	if len(e.Attendees) > 0 {
		out.Attendees = append([]Attendee(nil), e.Attendees...)
	}
	if out.IsAllDay {
		out.StartDate = StartOfDay(out.StartDate)
		end := out.EndDate
		if end.IsZero() || end.Before(out.StartDate) {
			end = out.StartDate
		}
		out.EndDate = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 0, 0, end.Location())
	}
	if out.Repeat != nil {
		if out.Repeat.Frequency == FrequencyNone || out.Repeat.Frequency == "" {
			out.Repeat = nil
		} else {
			r := *out.Repeat
			out.Repeat = &r
		}
	}
	return out
}

// HasTag reports whether e carries the given tag code (case-insensitive).
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormalizeTags trims, uppercases and dedupes tag codes, dropping empty ones.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

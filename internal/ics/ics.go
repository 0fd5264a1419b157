// Package ics renders calendar events as iCalendar (RFC 5545) data.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"sheetcal/internal/models"
)

// ProductID identifies this application in generated calendars.
const ProductID = "-//sheetcal//EN"

const propCalendarName = "X-WR-CALNAME"

// Calendar builds a VCALENDAR holding one VEVENT per event.
func Calendar(events []models.Event, name string, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		cal.Props.SetText(propCalendarName, name)
	}
	for _, e := range events {
		cal.Children = append(cal.Children, Event(e, now))
	}
	return cal
}

// Encode writes the calendar of events to w.
func Encode(w io.Writer, events []models.Event, name string, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(Calendar(events, name, now)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Event converts an event to a VEVENT component. Times are written in UTC;
// all-day events use DATE values with an exclusive end date.
func Event(e models.Event, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID)
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

	if e.IsAllDay {
		start := models.StartOfDay(e.StartDate)
		end := models.StartOfDay(e.EndDate)
		if end.Before(start) {
			end = start
		}
		ve.Props.SetDate(ical.PropDateTimeStart, start)
		ve.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, e.StartDate.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, e.EndDate.UTC())
	}

	if d := description(e); d != "" {
		ve.Props.SetText(ical.PropDescription, d)
	}
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if u := eventURL(e); u != "" {
		p := ical.NewProp(ical.PropURL)
		p.SetValueType(ical.ValueURI)
		p.Value = u
		ve.Props.Set(p)
	}
	if len(e.Tags) > 0 {
		p := ical.NewProp(ical.PropCategories)
		escaped := make([]string, 0, len(e.Tags))
		for _, t := range e.Tags {
			escaped = append(escaped, escapeText(t))
		}
		p.Value = strings.Join(escaped, ",")
		ve.Props.Set(p)
	}
	if rule := RecurrenceRule(e.Repeat); rule != nil {
		ve.Props.SetRecurrenceRule(rule)
	}
	return ve
}

// RecurrenceRule maps a stored repeat to an RRULE. It describes the
// cadence only; occurrences are never expanded here.
func RecurrenceRule(r *models.Repeat) *rrule.ROption {
	if r == nil {
		return nil
	}
	var freq rrule.Frequency
	switch r.Frequency {
	case models.FrequencyDaily:
		freq = rrule.DAILY
	case models.FrequencyWeekly:
		freq = rrule.WEEKLY
	case models.FrequencyMonthly:
		freq = rrule.MONTHLY
	default:
		return nil
	}
	opt := &rrule.ROption{Freq: freq}
	if r.Until != nil {
		opt.Until = r.Until.UTC()
	}
	return opt
}

func description(e models.Event) string {
	var parts []string
	if e.Notes != "" {
		parts = append(parts, e.Notes)
	}
	if e.HostOrganization != "" {
		parts = append(parts, "Host: "+e.HostOrganization)
	}
	if e.IsPaid && e.Cost != "" {
		parts = append(parts, "Cost: "+e.Cost)
	}
	return strings.Join(parts, "\n\n")
}

func eventURL(e models.Event) string {
	if e.EventURL != "" {
		return e.EventURL
	}
	return e.Link
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

package rowcodec

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetcal/internal/clock"
	"sheetcal/internal/models"
	"sheetcal/internal/store"
)

// StatusApproved is the moderation status that makes a row visible.
const StatusApproved = "approved"

// Codec maps rows of one schema to events and back. Decode and Encode are
// total: malformed input degrades to defaults instead of failing.
type Codec struct {
	Schema Schema
	Clock  clock.Clock
}

// New returns a codec for schema using clk for date fallbacks.
func New(schema Schema, clk clock.Clock) *Codec {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Codec{Schema: schema, Clock: clk}
}

// NewID returns a random RFC 4122 version 4 identifier.
func NewID() string {
	return uuid.NewString()
}

// Decode maps a row to an event. Missing ids are replaced with a fresh uuid,
// and missing or unparsable start/end dates with the current time.
func (c *Codec) Decode(row store.Row) models.Event {
	s := c.Schema
	now := c.Clock.Now()
	loc := now.Location()

	ev := models.Event{
		ID:               row.String(s.ID),
		Title:            row.String(s.Title),
		IsAllDay:         parseBool(row[s.AllDay]),
		HostOrganization: row.String(s.Host),
		Location:         row.String(s.Location),
		Link:             row.String(s.Link),
		Notes:            row.String(s.Notes),
		Status:           row.String(s.Status),
		IsPaid:           parseBool(row[s.Paid]),
		Cost:             row.String(s.Cost),
		ImageURL:         row.String(s.Image),
		EventURL:         row.String(s.EventURL),
	}
	if ev.ID == "" {
		ev.ID = NewID()
	}
	if ev.Title == "" {
		ev.Title = models.UntitledEvent
	}

	var ok bool
	if ev.StartDate, ok = c.parseDate(row.String(s.Start), loc); !ok {
		ev.StartDate = now
	}
	if ev.EndDate, ok = c.parseDate(row.String(s.End), loc); !ok {
		ev.EndDate = now
	}

	tags := splitList(row[s.Tags])
	ev.Tags = make([]string, 0, len(tags))
	for _, t := range tags {
		ev.Tags = append(ev.Tags, strings.ToUpper(t))
	}

	names := splitList(row[s.Attendees])
	ev.Attendees = make([]models.Attendee, 0, len(names))
	for _, n := range names {
		ev.Attendees = append(ev.Attendees, models.Attendee{Name: n, Avatar: ""})
	}

	if freq := models.ParseFrequency(row.String(s.Repeat)); freq != models.FrequencyNone {
		r := &models.Repeat{Frequency: freq}
		if until, ok := c.parseDate(row.String(s.RepeatUntil), loc); ok {
			r.Until = &until
		}
		ev.Repeat = r
	}

	return ev
}

// Encode maps an event to a row in the schema's textual conventions.
func (c *Codec) Encode(ev models.Event) store.Row {
	s := c.Schema
	loc := c.Clock.Now().Location()

	names := make([]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}

	freq, until := "", ""
	if ev.Repeat != nil && ev.Repeat.Frequency != models.FrequencyNone && ev.Repeat.Frequency != "" {
		freq = string(ev.Repeat.Frequency)
		if ev.Repeat.Until != nil {
			until = c.formatDate(ev.Repeat.Until.In(loc))
		}
	}

	row := store.Row{
		s.ID:          ev.ID,
		s.Title:       ev.Title,
		s.Start:       c.formatDate(ev.StartDate.In(loc)),
		s.End:         c.formatDate(ev.EndDate.In(loc)),
		s.AllDay:      formatBool(ev.IsAllDay),
		s.Tags:        strings.Join(ev.Tags, ", "),
		s.Attendees:   strings.Join(names, ", "),
		s.Status:      ev.Status,
		s.Repeat:      freq,
		s.RepeatUntil: until,
		s.Host:        ev.HostOrganization,
		s.Paid:        formatBool(ev.IsPaid),
		s.Cost:        ev.Cost,
		s.Location:    ev.Location,
		s.Notes:       ev.Notes,
		s.Link:        ev.Link,
		s.Image:       ev.ImageURL,
		s.EventURL:    ev.EventURL,
	}
	return row
}

// Values orders row by the schema columns for array-style appends.
func (c *Codec) Values(row store.Row) []any {
	out := make([]any, len(c.Schema.Columns))
	for i, col := range c.Schema.Columns {
		v, ok := row[col]
		if !ok || v == nil {
			out[i] = ""
			continue
		}
		out[i] = v
	}
	return out
}

// Approved reports whether a row passes the moderation gate. Rows without
// a status field are always visible.
func (c *Codec) Approved(row store.Row) bool {
	if !row.Has(c.Schema.Status) {
		return true
	}
	return strings.ToLower(row.String(c.Schema.Status)) == StatusApproved
}

// DecodeApproved decodes only the rows that pass the moderation gate.
func (c *Codec) DecodeApproved(rows []store.Row) []models.Event {
	out := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		if !c.Approved(r) {
			continue
		}
		out = append(out, c.Decode(r))
	}
	return out
}

// IDKey addresses the row of the event with the given id.
func (c *Codec) IDKey(id string) store.Key {
	return store.ByColumn(c.Schema.ID, id)
}

func (c *Codec) parseDate(s string, loc *time.Location) (time.Time, bool) {
	if c.Schema.Dates == SlashDates {
		return parseSlash(s, loc)
	}
	return parseISO(s, loc)
}

func (c *Codec) formatDate(t time.Time) string {
	if c.Schema.Dates == SlashDates {
		return formatSlash(t)
	}
	return formatISO(t)
}

package web

import (
	"fmt"
	"strings"
	"time"

	"sheetcal/internal/models"
)

type attendeeDTO struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type repeatDTO struct {
	Frequency string `json:"frequency"`
	Until     string `json:"until,omitempty"`
}

type eventResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	StartDate        time.Time     `json:"startDate"`
	EndDate          time.Time     `json:"endDate"`
	IsAllDay         bool          `json:"isAllDay"`
	Tags             []string      `json:"tags"`
	Attendees        []attendeeDTO `json:"attendees,omitempty"`
	Repeat           *repeatDTO    `json:"repeat,omitempty"`
	HostOrganization string        `json:"hostOrganization,omitempty"`
	Location         string        `json:"location,omitempty"`
	Link             string        `json:"link,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	Status           string        `json:"status,omitempty"`
	IsPaid           bool          `json:"isPaid,omitempty"`
	Cost             string        `json:"cost,omitempty"`
	ImageURL         string        `json:"imageUrl,omitempty"`
	EventURL         string        `json:"eventUrl,omitempty"`
}

func toEventResponse(e models.Event) eventResponse {
	resp := eventResponse{
		ID:               e.ID,
		Title:            e.Title,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		IsAllDay:         e.IsAllDay,
		Tags:             e.Tags,
		HostOrganization: e.HostOrganization,
		Location:         e.Location,
		Link:             e.Link,
		Notes:            e.Notes,
		Status:           e.Status,
		IsPaid:           e.IsPaid,
		Cost:             e.Cost,
		ImageURL:         e.ImageURL,
		EventURL:         e.EventURL,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, a := range e.Attendees {
		resp.Attendees = append(resp.Attendees, attendeeDTO{Name: a.Name, Avatar: a.Avatar})
	}
	if e.Repeat != nil {
		r := &repeatDTO{Frequency: string(e.Repeat.Frequency)}
		if e.Repeat.Until != nil {
			r.Until = e.Repeat.Until.Format(dateLayout)
		}
		resp.Repeat = r
	}
	return resp
}

func toEventResponses(events []models.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

// eventRequest is the body of event create and update calls.
type eventRequest struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	StartDate        string        `json:"startDate"`
	EndDate          string        `json:"endDate"`
	IsAllDay         bool          `json:"isAllDay"`
	Tags             []string      `json:"tags"`
	Attendees        []attendeeDTO `json:"attendees"`
	Repeat           *repeatDTO    `json:"repeat"`
	HostOrganization string        `json:"hostOrganization"`
	Location         string        `json:"location"`
	Link             string        `json:"link"`
	Notes            string        `json:"notes"`
	Status           string        `json:"status"`
	IsPaid           bool          `json:"isPaid"`
	Cost             string        `json:"cost"`
	ImageURL         string        `json:"imageUrl"`
	EventURL         string        `json:"eventUrl"`
}

const dateLayout = "2006-01-02"

// Accepted date inputs, tried in order. Layouts without an offset are
// read in the server's zone.
var requestLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dateLayout,
}

func parseRequestTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range requestLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// requestError is a client error with its response code.
type requestError struct {
	code string
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func (req eventRequest) toEvent(loc *time.Location) (models.Event, error) {
	if strings.TrimSpace(req.StartDate) == "" {
		return models.Event{}, &requestError{code: codeInvalidStartDate, msg: "startDate is required"}
	}
	start, err := parseRequestTime(req.StartDate, loc)
	if err != nil {
		return models.Event{}, &requestError{code: codeInvalidStartDate, msg: "invalid startDate format"}
	}
	end := start
	if strings.TrimSpace(req.EndDate) != "" {
		if end, err = parseRequestTime(req.EndDate, loc); err != nil {
			return models.Event{}, &requestError{code: codeInvalidEndDate, msg: "invalid endDate format"}
		}
	}

	e := models.Event{
		ID:               strings.TrimSpace(req.ID),
		Title:            strings.TrimSpace(req.Title),
		StartDate:        start,
		EndDate:          end,
		IsAllDay:         req.IsAllDay,
		Tags:             req.Tags,
		HostOrganization: req.HostOrganization,
		Location:         req.Location,
		Link:             req.Link,
		Notes:            req.Notes,
		Status:           strings.TrimSpace(req.Status),
		IsPaid:           req.IsPaid,
		Cost:             req.Cost,
		ImageURL:         req.ImageURL,
		EventURL:         req.EventURL,
	}
	for _, a := range req.Attendees {
		if name := strings.TrimSpace(a.Name); name != "" {
			e.Attendees = append(e.Attendees, models.Attendee{Name: name, Avatar: a.Avatar})
		}
	}
	if req.Repeat != nil {
		r := &models.Repeat{Frequency: models.ParseFrequency(req.Repeat.Frequency)}
		if strings.TrimSpace(req.Repeat.Until) != "" {
			until, err := parseRequestTime(req.Repeat.Until, loc)
			if err != nil {
				return models.Event{}, &requestError{code: codeInvalidEvent, msg: "invalid repeat.until format"}
			}
			r.Until = &until
		}
		e.Repeat = r
	}
	return e, nil
}

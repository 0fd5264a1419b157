package web

import (
	"net/url"
	"strings"

	"sheetcal/internal/filter"
	"sheetcal/internal/models"
)

// View is the page layout a shared link opens in.
type View string

const (
	ViewCalendar View = "calendar"
	ViewList     View = "list"
)

// ViewState is the part of the page state carried in the URL query:
// ?view=list&event=<id>&window=month&tags=ESO,PAID
type ViewState struct {
	View    View
	EventID string
	Window  filter.Window
	Tags    []string
}

// ParseViewState reads a ViewState from query parameters. Unknown views
// fall back to the calendar. Tags may be comma separated or repeated.
func ParseViewState(q url.Values) (ViewState, error) {
	vs := ViewState{View: ViewCalendar, EventID: strings.TrimSpace(q.Get("event"))}
	if strings.EqualFold(strings.TrimSpace(q.Get("view")), string(ViewList)) {
		vs.View = ViewList
	}

	w, err := filter.ParseWindow(q.Get("window"))
	if err != nil {
		return ViewState{}, err
	}
	vs.Window = w

	var tags []string
	for _, v := range q["tags"] {
		tags = append(tags, strings.Split(v, ",")...)
	}
	vs.Tags = models.NormalizeTags(tags)
	return vs, nil
}

// Values encodes vs as query parameters, leaving out defaults.
func (vs ViewState) Values() url.Values {
	q := url.Values{}
	if vs.View == ViewList {
		q.Set("view", string(ViewList))
	}
	if vs.EventID != "" {
		q.Set("event", vs.EventID)
	}
	if vs.Window != "" && vs.Window != filter.All {
		q.Set("window", string(vs.Window))
	}
	if tags := models.NormalizeTags(vs.Tags); len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	return q
}

// Query returns the filter stages selected by vs.
func (vs ViewState) Query() filter.Query {
	return filter.Query{Window: vs.Window, Tags: vs.Tags}
}

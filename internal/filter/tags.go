package filter

import (
	"time"

	"sheetcal/internal/models"
)

// ByTags keeps events carrying at least one of the selected tags.
// An empty selection applies no tag filter.
func ByTags(events []models.Event, selected []string) []models.Event {
	want := models.NormalizeTags(selected)
	if len(want) == 0 {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		for _, t := range want {
			if e.HasTag(t) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Query combines a time window with a tag selection.
type Query struct {
	Window Window
	Tags   []string
}

// Apply runs the window stage followed by the tag stage.
func Apply(events []models.Event, q Query, now time.Time) []models.Event {
	return ByTags(Filter(events, q.Window, now), q.Tags)
}

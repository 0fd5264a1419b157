package rowcodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sheetcal/internal/store"
)

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts tried, in order, for values that are not a bare YYYY-MM-DD.
// Layouts without a zone are interpreted in the local zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const (
	isoDateLayout     = "2006-01-02"
	isoDateTimeLayout = "2006-01-02T15:04:05"
)

// parseISO parses the date conventions of the sheet variant.
func parseISO(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if dateOnly.MatchString(s) {
		t, err := time.ParseInLocation(isoDateLayout, s, loc)
		return t, err == nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	// Exported sheets sometimes carry the slash convention in ISO columns.
	return parseSlash(s, loc)
}

// parseSlash parses M/D/YYYY HH:mm[:ss] by splitting on space, '/' and ':'
// and building a local time from the numeric parts.
func parseSlash(s string, loc *time.Location) (time.Time, bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return time.Time{}, false
	}
	date, ok := atoiAll(strings.Split(fields[0], "/"))
	if !ok || len(date) != 3 {
		return time.Time{}, false
	}
	clock, ok := atoiAll(strings.Split(fields[1], ":"))
	if !ok || len(clock) < 2 || len(clock) > 3 {
		return time.Time{}, false
	}
	sec := 0
	if len(clock) == 3 {
		sec = clock[2]
	}
	month, day, year := date[0], date[1], date[2]
	return time.Date(year, time.Month(month), day, clock[0], clock[1], sec, 0, loc), true
}

func atoiAll(parts []string) ([]int, bool) {
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func formatISO(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(isoDateLayout)
	}
	return t.Format(isoDateTimeLayout)
}

func formatSlash(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %02d:%02d:%02d",
		int(t.Month()), t.Day(), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// parseBool accepts the literal true or any case variant of "true".
func parseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// splitList accepts an already-decoded list or a comma-separated string and
// returns the trimmed, non-empty entries.
func splitList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, store.Text(item))
		}
	default:
		raw = strings.Split(store.Text(v), ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

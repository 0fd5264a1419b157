// Package settings maps the site settings record to and from the rows of
// a Key/Value/Type/Description tab.
package settings

import (
	"sort"
	"strings"

	"sheetcal/internal/models"
	"sheetcal/internal/store"
)

// Column names of the settings tab.
const (
	KeyColumn         = "Key"
	ValueColumn       = "Value"
	TypeColumn        = "Type"
	DescriptionColumn = "Description"
)

// Columns is the column order of the settings tab.
var Columns = []string{KeyColumn, ValueColumn, TypeColumn, DescriptionColumn}

// Setting keys.
const (
	SiteTitle       = "site_title"
	SiteDescription = "site_description"
	ContactEmail    = "contact_email"
	Tags            = "tags"
	TagLabels       = "tag_labels"
	FooterLinks     = "footer_links"
)

// Entry is one row of the settings tab.
type Entry struct {
	Key         string
	Value       string
	Type        string
	Description string
}

// Values returns the entry in column order.
func (e Entry) Values() []any {
	return []any{e.Key, e.Value, e.Type, e.Description}
}

// Row returns the entry as an object row.
func (e Entry) Row() store.Row {
	return store.Row{
		KeyColumn:         e.Key,
		ValueColumn:       e.Value,
		TypeColumn:        e.Type,
		DescriptionColumn: e.Description,
	}
}

// Decode builds settings from rows, starting from the defaults.
// Rows with an empty key and a repeated header row are skipped. An empty
// value keeps the default for text keys and clears list keys.
func Decode(rows []store.Row) models.Settings {
	s := models.DefaultSettings()
	for _, r := range rows {
		key, value := r.String(KeyColumn), r.String(ValueColumn)
		if key == "" || key == KeyColumn {
			continue
		}
		if value == "" && !listKey(key) {
			continue
		}
		switch key {
		case SiteTitle:
			s.SiteTitle = value
		case SiteDescription:
			s.SiteDescription = value
		case ContactEmail:
			s.ContactEmail = value
		case Tags:
			s.Tags = splitCSV(value)
		case TagLabels:
			s.TagLabels = parseLabels(value)
		case FooterLinks:
			s.FooterLinks = parseLinks(value)
		}
	}
	return s
}

// Entries renders s as settings rows in their canonical order.
func Entries(s models.Settings) []Entry {
	return []Entry{
		{SiteTitle, s.SiteTitle, "string", "Main site heading"},
		{SiteDescription, s.SiteDescription, "string", "Site description for about modal"},
		{ContactEmail, s.ContactEmail, "string", "Contact email for site"},
		{Tags, strings.Join(s.Tags, ","), "array", "Comma-separated list of available tags"},
		{TagLabels, formatLabels(s.TagLabels), "object", "Tag display labels (key:value pairs)"},
		{FooterLinks, formatLinks(s.FooterLinks), "array", "Footer links (text:url pairs)"},
	}
}

func listKey(key string) bool {
	return key == Tags || key == TagLabels || key == FooterLinks
}

func splitCSV(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseLabels reads "TAG:Label" pairs. A label containing a colon is cut at it.
func parseLabels(v string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) < 2 {
			continue
		}
		tag, label := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if tag != "" && label != "" {
			out[tag] = label
		}
	}
	return out
}

// parseLinks reads "text:url" pairs split on the first colon, so URLs keep their scheme.
func parseLinks(v string) []models.FooterLink {
	out := []models.FooterLink{}
	for _, pair := range strings.Split(v, ",") {
		i := strings.Index(pair, ":")
		if i <= 0 {
			continue
		}
		text, url := strings.TrimSpace(pair[:i]), strings.TrimSpace(pair[i+1:])
		if text != "" && url != "" {
			out = append(out, models.FooterLink{Text: text, URL: url})
		}
	}
	return out
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+labels[k])
	}
	return strings.Join(parts, ",")
}

func formatLinks(links []models.FooterLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, l.Text+":"+l.URL)
	}
	return strings.Join(parts, ",")
}

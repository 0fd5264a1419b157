package rowcodec

import "fmt"

// DateStyle selects the textual date convention of a sheet.
type DateStyle int

const (
	// ISODates stores YYYY-MM-DD, with a local time of day appended when it is not midnight.
	ISODates DateStyle = iota
	// SlashDates stores M/D/YYYY HH:mm:ss in local time.
	SlashDates
)

// Schema names the columns of one backend variant of the events tab.
type Schema struct {
	Name string
	// Tab is the default events tab name for this variant.
	Tab   string
	Dates DateStyle

	ID          string
	Title       string
	Start       string
	End         string
	AllDay      string
	Tags        string
	Attendees   string
	Status      string
	Repeat      string
	RepeatUntil string
	Host        string
	Paid        string
	Cost        string
	Location    string
	Notes       string
	Link        string
	Image       string
	EventURL    string

	// Columns is the sheet column order used for array-style appends.
	Columns []string
}

// SheetSchema is the NocodeAPI-backed sheet with lowerCamel headers.
var SheetSchema = Schema{
	Name:        "sheet",
	Tab:         "Event_Data",
	Dates:       ISODates,
	ID:          "id",
	Title:       "title",
	Start:       "startDate",
	End:         "endDate",
	AllDay:      "isAllDay",
	Tags:        "tags",
	Attendees:   "attendees",
	Status:      "status",
	Repeat:      "repeat",
	RepeatUntil: "repeatUntil",
	Host:        "hostOrganization",
	Paid:        "isPaid",
	Cost:        "cost",
	Location:    "location",
	Notes:       "notes",
	Link:        "link",
	Image:       "image",
	EventURL:    "eventUrl",
	Columns: []string{
		"status", "tags", "id", "title", "startDate", "endDate", "isAllDay",
		"repeat", "repeatUntil", "hostOrganization", "isPaid", "cost",
		"location", "notes", "link", "image", "eventUrl", "attendees",
	},
}

// LegacySchema is the older sheet layout with a GUID column and slash dates.
var LegacySchema = Schema{
	Name:        "legacy",
	Tab:         "Events",
	Dates:       SlashDates,
	ID:          "GUID",
	Title:       "Title",
	Start:       "startDateTime",
	End:         "endDateTime",
	AllDay:      "isAllDay",
	Tags:        "Tags",
	Attendees:   "Attendees",
	Status:      "Status",
	Repeat:      "repeatFrequency",
	RepeatUntil: "repeatUntil",
	Host:        "hostOrganization",
	Paid:        "isPaid",
	Cost:        "Cost",
	Location:    "Location",
	Notes:       "Description",
	Link:        "RegistrationUrl",
	Image:       "ImageUrl",
	EventURL:    "EventUrl",
	Columns: []string{
		"GUID", "Title", "startDateTime", "endDateTime", "isAllDay", "Tags",
		"Status", "repeatFrequency", "repeatUntil", "hostOrganization", "isPaid",
		"Cost", "Location", "Description", "RegistrationUrl", "ImageUrl", "EventUrl",
		"Attendees",
	},
}

// SchemaByName returns the schema registered under name ("sheet" or "legacy").
func SchemaByName(name string) (Schema, error) {
	switch name {
	case "", SheetSchema.Name:
		return SheetSchema, nil
	case LegacySchema.Name:
		return LegacySchema, nil
	default:
		return Schema{}, fmt.Errorf("unknown row format %q", name)
	}
}

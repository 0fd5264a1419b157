package calendar

import (
	"time"

	"sheetcal/internal/models"
)

// SampleEvents is the dataset shown in demo mode and when the backend is unreachable.
func SampleEvents() []models.Event {
	at := func(day, hour int) time.Time {
		return time.Date(2024, time.January, day, hour, 0, 0, 0, time.Local)
	}
	return []models.Event{
		{
			ID:               "550e8400-e29b-41d4-a716-446655440001",
			Title:            "Startup Networking Mixer",
			StartDate:        at(15, 18),
			EndDate:          at(15, 20),
			Attendees:        []models.Attendee{{Name: "John Doe"}, {Name: "Jane Smith"}},
			Link:             "https://meet.google.com/abc-defg-hij",
			Notes:            "Monthly networking event for local startups",
			HostOrganization: "Central VA Startup Hub",
			Location:         "Downtown Richmond",
			Tags:             []string{"NETWORKING", "ESO"},
		},
		{
			ID:               "550e8400-e29b-41d4-a716-446655440002",
			Title:            "Pitch Competition",
			StartDate:        at(20, 14),
			EndDate:          at(20, 17),
			Attendees:        []models.Attendee{{Name: "Bob Johnson"}},
			Notes:            "Annual startup pitch competition with $10k prize",
			HostOrganization: "VA Innovation Hub",
			Location:         "VCU Innovation Center",
			Tags:             []string{"PAID", "ESO"},
		},
	}
}

package models

// FooterLink is a labelled link shown in the site footer.
type FooterLink struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// Settings is the site-level configuration record.
type Settings struct {
	SiteTitle       string            `json:"site_title"`
	SiteDescription string            `json:"site_description"`
	ContactEmail    string            `json:"contact_email"`
	Tags            []string          `json:"tags"`
	TagLabels       map[string]string `json:"tag_labels"`
	FooterLinks     []FooterLink      `json:"footer_links"`
}

// DefaultSettings returns the settings used when none can be loaded.
func DefaultSettings() Settings {
	return Settings{
		SiteTitle:       "Central VA ESO Calendar",
		SiteDescription: "A shared calendar for ESO practitioners.",
		ContactEmail:    "",
		Tags:            []string{"ESO", "PAID", "NETWORKING"},
		TagLabels: map[string]string{
			"ESO":        "ESO Event",
			"PAID":       "Paid Event",
			"NETWORKING": "Networking Event",
		},
		FooterLinks: []FooterLink{
			{Text: "Terms of Service", URL: "#"},
			{Text: "Privacy Policy", URL: "#"},
			{Text: "Cookie Policy", URL: "#"},
		},
	}
}

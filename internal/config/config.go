package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sheetcal/internal/rowcodec"
)

// Mode is the persistence backend selected by the configuration.
type Mode string

const (
	ModeSheets Mode = "sheets"
	ModeNocode Mode = "nocode"
	ModeDemo   Mode = "demo"
)

// GoogleConfig holds the Google Sheets backend settings.
type GoogleConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	TokenFile     string `yaml:"token_file"`
}

// CalDAVConfig holds the publishing target settings.
type CalDAVConfig struct {
	URL          string `yaml:"url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CalendarName string `yaml:"calendar_name"`
}

// Config is the top-level application configuration.
type Config struct {
	// NocodeEndpoint is the tabular-data API base URL.
	NocodeEndpoint string       `yaml:"nocode_api_endpoint"`
	Google         GoogleConfig `yaml:"google"`

	EventsTab   string `yaml:"events_tab"`
	SettingsTab string `yaml:"settings_tab"`
	// RowFormat selects the column layout: "sheet" or "legacy".
	RowFormat string `yaml:"row_format"`

	// AdminPassword gates edits. Empty disables every admin operation.
	AdminPassword string   `yaml:"admin_password"`
	Listen        string   `yaml:"listen"`
	CORSOrigins   []string `yaml:"cors_origins"`
	LogLevel      string   `yaml:"log_level"`

	CalDAV        CalDAVConfig `yaml:"caldav"`
	SyncStateFile string       `yaml:"sync_state_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		RowFormat:     rowcodec.SheetSchema.Name,
		Listen:        "127.0.0.1:8080",
		LogLevel:      "info",
		SyncStateFile: "sync-state.json",
		CalDAV:        CalDAVConfig{CalendarName: "Community Events"},
	}
}

// Normalize fills zero values with defaults and tidies list entries.
func (c *Config) Normalize() {
	d := Default()
	if c.RowFormat == "" {
		c.RowFormat = d.RowFormat
	}
	c.RowFormat = strings.ToLower(strings.TrimSpace(c.RowFormat))
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.SyncStateFile == "" {
		c.SyncStateFile = d.SyncStateFile
	}
	if c.CalDAV.CalendarName == "" {
		c.CalDAV.CalendarName = d.CalDAV.CalendarName
	}
	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins
}

// Mode picks the backend: Sheets when a spreadsheet id is set, then the
// tabular API when an endpoint is set, otherwise read-only demo data.
func (c *Config) Mode() Mode {
	switch {
	case c.Google.SpreadsheetID != "":
		return ModeSheets
	case c.NocodeEndpoint != "":
		return ModeNocode
	default:
		return ModeDemo
	}
}

// Schema returns the row layout named by RowFormat.
func (c *Config) Schema() (rowcodec.Schema, error) {
	return rowcodec.SchemaByName(c.RowFormat)
}

// Validate reports settings that make the configuration unusable.
func (c *Config) Validate() error {
	if _, err := c.Schema(); err != nil {
		return err
	}
	return nil
}

// Load reads the optional YAML file at path, then applies environment
// overrides. Variables in dotenv files are used only when the process
// environment does not set them.
func Load(path string, dotenvFiles ...string) (*Config, error) {
	fileEnv := map[string]string{}
	for _, f := range dotenvFiles {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vars {
			if _, ok := fileEnv[k]; !ok {
				fileEnv[k] = v
			}
		}
	}
	return load(path, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnv(cfg, lookup)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("NOCODE_API_ENDPOINT", &cfg.NocodeEndpoint)
	str("GOOGLE_SPREADSHEET_ID", &cfg.Google.SpreadsheetID)
	str("GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)
	str("GOOGLE_TOKEN_FILE", &cfg.Google.TokenFile)
	str("EVENTS_TAB", &cfg.EventsTab)
	str("SETTINGS_TAB", &cfg.SettingsTab)
	str("ROW_FORMAT", &cfg.RowFormat)
	str("ADMIN_PASSWORD", &cfg.AdminPassword)
	str("LISTEN", &cfg.Listen)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("CALDAV_URL", &cfg.CalDAV.URL)
	str("CALDAV_USERNAME", &cfg.CalDAV.Username)
	str("CALDAV_PASSWORD", &cfg.CalDAV.Password)
	str("CALDAV_CALENDAR_NAME", &cfg.CalDAV.CalendarName)
	str("SYNC_STATE_FILE", &cfg.SyncStateFile)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
}

// Package caldav publishes calendar events to a CalDAV collection.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"sheetcal/internal/clock"
	"sheetcal/internal/ics"
	"sheetcal/internal/models"
)

// DefaultEndpoint is the iCloud CalDAV server.
const DefaultEndpoint = "https://caldav.icloud.com/"

// basicAuthTransport adds Basic Auth and the User-Agent to each request.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "sheetcal/1.0")
	return t.Transport.RoundTrip(req)
}

// Config holds the CalDAV connection settings.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string
}

// Client writes events into one calendar collection.
type Client struct {
	webdav       *webdav.Client
	logger       *slog.Logger
	clock        clock.Clock
	calendarPath string
}

// NewClient connects and resolves the calendar named in cfg through
// principal, home set and calendar discovery.
func NewClient(ctx context.Context, logger *slog.Logger, clk clock.Clock, cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := &http.Client{Transport: &basicAuthTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	logger.Info("Finding CalDAV calendar", "calendarName", cfg.CalendarName, "endpoint", endpoint)
	calendarPath, err := findCalendar(ctx, caldavClient, cfg.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.CalendarName, err)
	}
	logger.Info("Found CalDAV calendar", "path", calendarPath)

	return newWithPath(httpClient, endpoint, calendarPath, logger, clk)
}

func newWithPath(httpClient webdav.HTTPClient, endpoint, calendarPath string, logger *slog.Logger, clk clock.Clock) (*Client, error) {
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Client{
		webdav:       webdavClient,
		logger:       logger,
		clock:        clk,
		calendarPath: calendarPath,
	}, nil
}

// PutEvent creates or replaces the event's calendar object.
func (c *Client) PutEvent(ctx context.Context, e models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ics.ProductID)
	cal.Children = append(cal.Children, ics.Event(e, c.clock.Now()))

	writer, err := c.webdav.Create(ctx, c.objectPath(e.ID))
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}

	c.logger.Debug("Published event", "id", e.ID, "title", e.Title)
	return nil
}

// DeleteEvent removes the event's calendar object.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.webdav.RemoveAll(ctx, c.objectPath(id)); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	c.logger.Debug("Removed event", "id", id)
	return nil
}

func (c *Client) objectPath(id string) string {
	return path.Join(c.calendarPath, id+".ics")
}

// findCalendar returns the path of the calendar with the given display name.
func findCalendar(ctx context.Context, client *caldav.Client, name string) (string, error) {
	principalPath, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if strings.EqualFold(cal.Name, name) {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// Package calendar is the application service over a spreadsheet-backed
// event table: loading and moderation, lookups, edits and site settings.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"sheetcal/internal/models"
	"sheetcal/internal/rowcodec"
	"sheetcal/internal/settings"
	"sheetcal/internal/store"
)

// DefaultSettingsTab is the tab holding site settings.
const DefaultSettingsTab = "settings"

// Tabs names the tabs the service reads and writes.
type Tabs struct {
	Events   string
	Settings string
}

// Service provides calendar operations over a store.Table.
type Service struct {
	table  store.Table
	codec  *rowcodec.Codec
	tabs   Tabs
	logger *slog.Logger
}

// NewService creates a service. Empty tab names fall back to the schema's
// events tab and DefaultSettingsTab.
func NewService(table store.Table, codec *rowcodec.Codec, tabs Tabs, logger *slog.Logger) *Service {
	if tabs.Events == "" {
		tabs.Events = codec.Schema.Tab
	}
	if tabs.Settings == "" {
		tabs.Settings = DefaultSettingsTab
	}
	return &Service{table: table, codec: codec, tabs: tabs, logger: logger}
}

// NewDemo creates a read-only service seeded with SampleEvents.
func NewDemo(codec *rowcodec.Codec, tabs Tabs, logger *slog.Logger) *Service {
	s := NewService(nil, codec, tabs, logger)
	mem := store.NewMemory(map[string][]string{
		s.tabs.Events:   codec.Schema.Columns,
		s.tabs.Settings: settings.Columns,
	})
	for _, e := range SampleEvents() {
		e.Status = rowcodec.StatusApproved
		mem.Seed(s.tabs.Events, codec.Encode(e))
	}
	s.table = mem.ReadOnly()
	return s
}

// Tabs returns the tab names in use.
func (s *Service) Tabs() Tabs {
	return s.tabs
}

// Events lists the approved events of the events tab.
func (s *Service) Events(ctx context.Context) ([]models.Event, error) {
	rows, err := s.table.List(ctx, s.tabs.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := s.codec.DecodeApproved(rows)
	s.logger.Debug("Loaded events", "rows", len(rows), "approved", len(events))
	return events, nil
}

// Event returns the approved event with the given id.
func (s *Service) Event(ctx context.Context, id string) (models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return models.Event{}, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Event{}, fmt.Errorf("event %s: %w", id, models.ErrEventNotFound)
}

// Create stores a new event under a fresh id. Unapproved submissions are
// saved with an empty status and stay hidden until a moderator approves them.
func (s *Service) Create(ctx context.Context, e models.Event, approved bool) (models.Event, error) {
	e.ID = rowcodec.NewID()
	e = e.Normalized()
	e.Status = ""
	if approved {
		e.Status = rowcodec.StatusApproved
	}

	values := s.codec.Values(s.codec.Encode(e))
	if err := s.table.Append(ctx, s.tabs.Events, values); err != nil {
		return models.Event{}, fmt.Errorf("failed to create event: %w", mapErr(err))
	}
	s.logger.Info("Created event", "id", e.ID, "title", e.Title, "approved", approved)
	return e, nil
}

// Update overwrites the stored event with the same id. An empty status
// keeps the stored one.
func (s *Service) Update(ctx context.Context, e models.Event) (models.Event, error) {
	if e.ID == "" {
		return models.Event{}, fmt.Errorf("update without id: %w", models.ErrInvalidEvent)
	}
	current, err := s.find(ctx, e.ID)
	if err != nil {
		return models.Event{}, err
	}
	e = e.Normalized()
	if e.Status == "" {
		e.Status = current.String(s.codec.Schema.Status)
	}

	if err := s.table.Update(ctx, s.tabs.Events, s.codec.IDKey(e.ID), s.codec.Encode(e)); err != nil {
		return models.Event{}, fmt.Errorf("failed to update event %s: %w", e.ID, mapEventErr(err))
	}
	s.logger.Info("Updated event", "id", e.ID)
	return e, nil
}

// Delete removes the event with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.table.Delete(ctx, s.tabs.Events, s.codec.IDKey(id)); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, mapEventErr(err))
	}
	s.logger.Info("Deleted event", "id", id)
	return nil
}

// find returns the stored row of an event regardless of its moderation status.
func (s *Service) find(ctx context.Context, id string) (store.Row, error) {
	rows, err := s.table.List(ctx, s.tabs.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	key := s.codec.IDKey(id)
	for _, r := range rows {
		if key.Matches(r) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", id, models.ErrEventNotFound)
}

// Settings loads the site settings. Any failure yields the defaults.
func (s *Service) Settings(ctx context.Context) models.Settings {
	rows, err := s.table.List(ctx, s.tabs.Settings)
	if err != nil {
		s.logger.Warn("Failed to load settings, using defaults", "error", err)
		return models.DefaultSettings()
	}
	return settings.Decode(rows)
}

// SaveSettings writes every setting, updating existing keys in place and
// appending new ones, then removes rows for keys that are no longer used.
func (s *Service) SaveSettings(ctx context.Context, st models.Settings) error {
	rows, err := s.table.List(ctx, s.tabs.Settings)
	if err != nil {
		return fmt.Errorf("failed to load current settings: %w", err)
	}
	current := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		current[r.String(settings.KeyColumn)] = r
	}

	entries := settings.Entries(st)
	wanted := make(map[string]bool, len(entries))
	for _, e := range entries {
		wanted[e.Key] = true
		existing, ok := current[e.Key]
		if !ok {
			if err := s.table.Append(ctx, s.tabs.Settings, e.Values()); err != nil {
				return fmt.Errorf("failed to add setting %s: %w", e.Key, mapErr(err))
			}
			continue
		}
		key := store.ByColumn(settings.KeyColumn, e.Key)
		if id := existing.RowID(); id > 0 {
			key = store.ByRowID(id)
		}
		if err := s.table.Update(ctx, s.tabs.Settings, key, e.Row()); err != nil {
			return fmt.Errorf("failed to update setting %s: %w", e.Key, mapErr(err))
		}
	}

	// Highest row first so earlier deletions do not shift later row ids.
	var stale []int
	for _, r := range rows {
		if !wanted[r.String(settings.KeyColumn)] && r.RowID() > 0 {
			stale = append(stale, r.RowID())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stale)))
	for _, id := range stale {
		if err := s.table.Delete(ctx, s.tabs.Settings, store.ByRowID(id)); err != nil {
			return fmt.Errorf("failed to remove stale setting row %d: %w", id, mapErr(err))
		}
	}

	s.logger.Info("Saved settings", "keys", len(entries), "removed", len(stale))
	return nil
}

// mapErr translates table errors into the calendar's sentinel errors.
func mapErr(err error) error {
	switch {
	case errors.Is(err, store.ErrReadOnly):
		return models.ErrReadOnly
	default:
		return err
	}
}

func mapEventErr(err error) error {
	if errors.Is(err, store.ErrRowNotFound) {
		return models.ErrEventNotFound
	}
	return mapErr(err)
}

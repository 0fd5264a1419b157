// Package syncer publishes approved calendar events to a CalDAV calendar.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"sheetcal/internal/models"
)

// DefaultStateFile is used when no state path is configured.
const DefaultStateFile = "sync-state.json"

// Source yields the events to publish.
type Source interface {
	Events(ctx context.Context) ([]models.Event, error)
}

// Target is the calendar events are published to.
type Target interface {
	PutEvent(ctx context.Context, e models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

// State maps a published event id to the fingerprint of the version
// last written to the target.
type State map[string]string

// Result counts what one sync cycle did.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int
}

// Syncer performs one-way publishing from Source to Target.
type Syncer struct {
	logger    *slog.Logger
	source    Source
	target    Target
	statePath string
	state     State
	dryRun    bool
}

// NewSyncer creates a Syncer, loading previous state from statePath if present.
func NewSyncer(logger *slog.Logger, source Source, target Target, statePath string, dryRun bool) (*Syncer, error) {
	if statePath == "" {
		statePath = DefaultStateFile
	}
	state, err := loadState(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No sync state file found, starting fresh.", "file", statePath)
			state = make(State)
		} else {
			return nil, fmt.Errorf("failed to load sync state: %w", err)
		}
	}

	return &Syncer{
		logger:    logger,
		source:    source,
		target:    target,
		statePath: statePath,
		state:     state,
		dryRun:    dryRun,
	}, nil
}

// Sync runs one publishing cycle. Failures on single events are logged and
// counted; the cycle itself fails only when the source cannot be read.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var res Result
	s.logger.Info("Starting sync cycle.")

	events, err := s.source.Events(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch events: %w", err)
	}
	s.logger.Info("Fetched approved events.", "count", len(events))

	seen := make(map[string]bool, len(events))
	for _, e := range events {
		seen[e.ID] = true
		fp := Fingerprint(e)
		prev, known := s.state[e.ID]
		if known && prev == fp {
			res.Unchanged++
			continue
		}

		if s.dryRun {
			s.logger.Info("[DRY RUN] Would publish event", "title", e.Title, "id", e.ID, "update", known)
		} else if err := s.target.PutEvent(ctx, e); err != nil {
			s.logger.Error("Failed to publish event", "title", e.Title, "id", e.ID, "error", err)
			res.Failed++
			continue
		} else {
			s.state[e.ID] = fp
		}
		if known {
			res.Updated++
		} else {
			res.Created++
		}
	}

	for _, id := range s.staleIDs(seen) {
		if s.dryRun {
			s.logger.Info("[DRY RUN] Would remove event", "id", id)
		} else if err := s.target.DeleteEvent(ctx, id); err != nil {
			s.logger.Error("Failed to remove event", "id", id, "error", err)
			res.Failed++
			continue
		} else {
			delete(s.state, id)
		}
		res.Removed++
	}

	if !s.dryRun {
		if err := s.saveState(); err != nil {
			s.logger.Error("Failed to save sync state", "error", err)
		}
	}

	s.logger.Info("Sync cycle finished.",
		"created", res.Created, "updated", res.Updated, "unchanged", res.Unchanged,
		"removed", res.Removed, "failed", res.Failed)
	return res, nil
}

// Watch runs Sync every interval until ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}
	s.logger.Info("Starting watcher.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sync(ctx); err != nil {
			s.logger.Error("Sync cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Syncer) staleIDs(seen map[string]bool) []string {
	var ids []string
	for id := range s.state {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Fingerprint identifies the published content of an event.
func Fingerprint(e models.Event) string {
	e.Status = ""
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()
	data, _ := json.Marshal(e)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func loadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

func (s *Syncer) saveState() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return os.WriteFile(s.statePath, data, 0o644)
}

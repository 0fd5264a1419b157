package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"sheetcal/internal/clock"
	"sheetcal/internal/models"
	"sheetcal/internal/rowcodec"
	"sheetcal/internal/settings"
	"sheetcal/internal/store"
)

var testNow = time.Date(2025, 6, 25, 12, 0, 0, 0, time.Local)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	codec := rowcodec.New(rowcodec.SheetSchema, clock.NewFixed(testNow))
	mem := store.NewMemory(map[string][]string{
		rowcodec.SheetSchema.Tab: rowcodec.SheetSchema.Columns,
		DefaultSettingsTab:       settings.Columns,
	})
	return NewService(mem, codec, Tabs{}, discardLogger()), mem
}

func seedRow(status, id, title, start string) store.Row {
	return store.Row{"status": status, "id": id, "title": title, "startDate": start, "endDate": start}
}

func TestEvents_ModerationGate(t *testing.T) {
	t.Parallel()

	svc, mem := newTestService(t)
	mem.Seed(rowcodec.SheetSchema.Tab,
		seedRow("approved", "a", "Visible", "2025-06-25"),
		seedRow("Pending", "b", "Hidden", "2025-06-26"),
		seedRow("", "c", "Blank", "2025-06-27"),
		seedRow(" APPROVED ", "d", "Visible too", "2025-06-28"),
	)

	events, err := svc.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a" || events[1].ID != "d" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEvent_Lookup(t *testing.T) {
	t.Parallel()

	svc, mem := newTestService(t)
	mem.Seed(rowcodec.SheetSchema.Tab,
		seedRow("approved", "a", "Visible", "2025-06-25"),
		seedRow("", "b", "Pending", "2025-06-25"),
	)
	ctx := context.Background()

	got, err := svc.Event(ctx, "a")
	if err != nil || got.Title != "Visible" {
		t.Fatalf("expected event a, got %+v, %v", got, err)
	}
	if _, err := svc.Event(ctx, "b"); !errors.Is(err, models.ErrEventNotFound) {
		t.Fatalf("pending event must not be found, got %v", err)
	}
	if _, err := svc.Event(ctx, "missing"); !errors.Is(err, models.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		approved   bool
		wantStatus string
		wantListed int
	}{
		{name: "public submission pending", approved: false, wantStatus: "", wantListed: 0},
		{name: "admin creation approved", approved: true, wantStatus: "approved", wantListed: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, mem := newTestService(t)
			ctx := context.Background()

			in := models.Event{
				Title:     "",
				StartDate: time.Date(2025, 7, 4, 15, 0, 0, 0, time.Local),
				IsAllDay:  true,
				Tags:      []string{"eso"},
				ID:        "caller-supplied",
				Status:    "approved",
			}
			created, err := svc.Create(ctx, in, tt.approved)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if created.ID == "" || created.ID == "caller-supplied" {
				t.Fatalf("expected fresh id, got %q", created.ID)
			}
			if created.Title != models.UntitledEvent || created.Status != tt.wantStatus {
				t.Fatalf("unexpected created event: %+v", created)
			}

			rows, _ := mem.List(ctx, rowcodec.SheetSchema.Tab)
			if len(rows) != 1 {
				t.Fatalf("expected one stored row, got %d", len(rows))
			}
			r := rows[0]
			if r.String("status") != tt.wantStatus || r.String("tags") != "ESO" || r.String("startDate") != "2025-07-04" {
				t.Fatalf("unexpected stored row: %v", r)
			}
			if r.String("endDate") != "2025-07-04T23:59:00" {
				t.Fatalf("expected all-day end at 23:59, got %q", r.String("endDate"))
			}

			events, _ := svc.Events(ctx)
			if len(events) != tt.wantListed {
				t.Fatalf("expected %d listed events, got %d", tt.wantListed, len(events))
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	svc, mem := newTestService(t)
	mem.Seed(rowcodec.SheetSchema.Tab, seedRow("approved", "a", "Old", "2025-06-25"))
	ctx := context.Background()

	updated, err := svc.Update(ctx, models.Event{ID: "a", Title: "New", StartDate: testNow, EndDate: testNow})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "approved" {
		t.Fatalf("expected stored status to be kept, got %q", updated.Status)
	}

	got, err := svc.Event(ctx, "a")
	if err != nil || got.Title != "New" {
		t.Fatalf("expected updated event, got %+v, %v", got, err)
	}

	if _, err := svc.Update(ctx, models.Event{ID: "zzz"}); !errors.Is(err, models.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, models.Event{}); !errors.Is(err, models.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	svc, mem := newTestService(t)
	mem.Seed(rowcodec.SheetSchema.Tab, seedRow("approved", "a", "A", "2025-06-25"), seedRow("", "b", "B", "2025-06-25"))
	ctx := context.Background()

	if err := svc.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	rows, _ := mem.List(ctx, rowcodec.SheetSchema.Tab)
	if len(rows) != 1 || rows[0].String("id") != "a" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if err := svc.Delete(ctx, "b"); !errors.Is(err, models.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDemo_ReadOnly(t *testing.T) {
	t.Parallel()

	codec := rowcodec.New(rowcodec.SheetSchema, clock.NewFixed(testNow))
	svc := NewDemo(codec, Tabs{}, discardLogger())
	ctx := context.Background()

	events, err := svc.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != len(SampleEvents()) {
		t.Fatalf("expected sample events, got %d", len(events))
	}
	if events[0].Title != "Startup Networking Mixer" || !events[0].StartDate.Equal(SampleEvents()[0].StartDate) {
		t.Fatalf("sample event not round-tripped: %+v", events[0])
	}

	if _, err := svc.Create(ctx, models.Event{Title: "x"}, false); !errors.Is(err, models.ErrReadOnly) {
		t.Fatalf("create: expected ErrReadOnly, got %v", err)
	}
	if _, err := svc.Update(ctx, events[0]); !errors.Is(err, models.ErrReadOnly) {
		t.Fatalf("update: expected ErrReadOnly, got %v", err)
	}
	if err := svc.Delete(ctx, events[0].ID); !errors.Is(err, models.ErrReadOnly) {
		t.Fatalf("delete: expected ErrReadOnly, got %v", err)
	}
	if err := svc.SaveSettings(ctx, models.DefaultSettings()); !errors.Is(err, models.ErrReadOnly) {
		t.Fatalf("save settings: expected ErrReadOnly, got %v", err)
	}
	if got := svc.Settings(ctx); got.SiteTitle != models.DefaultSettings().SiteTitle {
		t.Fatalf("expected default settings, got %+v", got)
	}
}

type failingTable struct{ store.Table }

func (failingTable) List(context.Context, string) ([]store.Row, error) {
	return nil, errors.New("backend down")
}

func TestSettings_FallbackOnError(t *testing.T) {
	t.Parallel()

	codec := rowcodec.New(rowcodec.SheetSchema, clock.NewFixed(testNow))
	svc := NewService(failingTable{}, codec, Tabs{}, discardLogger())

	got := svc.Settings(context.Background())
	if got.SiteTitle != models.DefaultSettings().SiteTitle {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if _, err := svc.Events(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestSaveSettings_Upsert(t *testing.T) {
	t.Parallel()

	svc, mem := newTestService(t)
	mem.Seed(DefaultSettingsTab,
		store.Row{"Key": "site_title", "Value": "Old", "Type": "string", "Description": ""},
		store.Row{"Key": "obsolete", "Value": "x", "Type": "string", "Description": ""},
		store.Row{"Key": "legacy", "Value": "y", "Type": "string", "Description": ""},
	)
	ctx := context.Background()

	st := models.DefaultSettings()
	st.SiteTitle = "New Title"
	if err := svc.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, _ := mem.List(ctx, DefaultSettingsTab)
	if len(rows) != len(settings.Entries(st)) {
		t.Fatalf("expected %d rows, got %d: %v", len(settings.Entries(st)), len(rows), rows)
	}
	if rows[0].String("Key") != "site_title" || rows[0].String("Value") != "New Title" || rows[0].RowID() != 2 {
		t.Fatalf("expected site_title updated in place, got %v", rows[0])
	}
	for _, r := range rows {
		if k := r.String("Key"); k == "obsolete" || k == "legacy" {
			t.Fatalf("stale key %q not removed", k)
		}
	}

	if got := svc.Settings(ctx); got.SiteTitle != "New Title" {
		t.Fatalf("expected saved title, got %q", got.SiteTitle)
	}
}

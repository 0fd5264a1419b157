package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"sheetcal/internal/store"
)

// fakeSheets serves the subset of the Sheets v4 REST API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	tabs   map[string][][]interface{}
	ids    map[string]int64
	writes []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1")
	switch {
	case path == "" && r.Method == http.MethodGet:
		var sheetsOut []map[string]any
		for title, id := range f.ids {
			sheetsOut = append(sheetsOut, map[string]any{"properties": map[string]any{"sheetId": id, "title": title}})
		}
		writeJSON(w, map[string]any{"sheets": sheetsOut})

	case path == ":batchUpdate" && r.Method == http.MethodPost:
		var req struct {
			Requests []struct {
				DeleteDimension struct {
					Range struct {
						SheetID    int64 `json:"sheetId"`
						StartIndex int   `json:"startIndex"`
						EndIndex   int   `json:"endIndex"`
					} `json:"range"`
				} `json:"deleteDimension"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			rg := rq.DeleteDimension.Range
			for title, id := range f.ids {
				if id == rg.SheetID {
					rows := f.tabs[title]
					f.tabs[title] = append(rows[:rg.StartIndex:rg.StartIndex], rows[rg.EndIndex:]...)
				}
			}
		}
		f.writes = append(f.writes, "delete")
		writeJSON(w, map[string]any{})

	case strings.HasPrefix(path, "/values/"):
		rng := strings.TrimPrefix(path, "/values/")
		appendCall := strings.HasSuffix(rng, ":append")
		rng = strings.TrimSuffix(rng, ":append")
		tab, cell := splitRange(rng)

		switch {
		case r.Method == http.MethodGet:
			writeJSON(w, map[string]any{"range": rng, "values": f.tabs[tab]})
		case appendCall && r.Method == http.MethodPost:
			var vr struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			f.tabs[tab] = append(f.tabs[tab], vr.Values...)
			f.writes = append(f.writes, "append "+r.URL.Query().Get("valueInputOption"))
			writeJSON(w, map[string]any{})
		case r.Method == http.MethodPut:
			var vr struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			n, _ := strconv.Atoi(strings.TrimPrefix(cell, "A"))
			f.tabs[tab][n-1] = vr.Values[0]
			f.writes = append(f.writes, "update "+cell)
			writeJSON(w, map[string]any{})
		default:
			http.Error(w, "unsupported", http.StatusBadRequest)
		}

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func splitRange(rng string) (tab, cell string) {
	tab, cell, _ = strings.Cut(rng, "!")
	return strings.Trim(tab, "'"), cell
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeClient(t *testing.T) (*SheetsClient, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{
		tabs: map[string][][]interface{}{
			"Event_Data": {
				{"status", "id", "title"},
				{"approved", "a", "First"},
				{"", "", ""},
				{"", "b", "Second"},
			},
		},
		ids: map[string]int64{"Event_Data": 0},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClientWithOptions(context.Background(), logger, "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, fake
}

func TestSheetsClient_List(t *testing.T) {
	t.Parallel()

	c, _ := newFakeClient(t)
	rows, err := c.List(context.Background(), "Event_Data")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank row to be skipped, got %d rows", len(rows))
	}
	if rows[0].String("title") != "First" || rows[0].RowID() != 2 {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1].String("id") != "b" || rows[1].RowID() != 4 {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestSheetsClient_AppendUpdateDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, fake := newFakeClient(t)

	if err := c.Append(ctx, "Event_Data", []any{"", "c", "Third"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := c.Update(ctx, "Event_Data", store.ByColumn("id", "b"), store.Row{"id": "b", "title": "Second v2", "status": "approved"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.Delete(ctx, "Event_Data", store.ByColumn("id", "a")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rows, err := c.List(ctx, "Event_Data")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.String("status")+"|"+r.String("id")+"|"+r.String("title"))
	}
	want := []string{"approved|b|Second v2", "|c|Third"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if strings.Join(fake.writes, ",") != "append RAW,update A4,delete" {
		t.Fatalf("unexpected write sequence: %v", fake.writes)
	}
}

func TestSheetsClient_MissingRow(t *testing.T) {
	t.Parallel()

	c, _ := newFakeClient(t)
	err := c.Update(context.Background(), "Event_Data", store.ByColumn("id", "zzz"), store.Row{})
	if !errors.Is(err, store.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

func TestNewClientWithOptions_RequiresID(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewClientWithOptions(context.Background(), logger, "", option.WithoutAuthentication()); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}

package nocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"sheetcal/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorded struct {
	method string
	query  map[string]string
	body   string
	ua     string
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		calls = append(calls, recorded{method: r.Method, query: q, body: string(body), ua: r.Header.Get("User-Agent")})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(url, discardLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "not a url", "/relative"} {
		if _, err := NewClient(endpoint, discardLogger()); err == nil {
			t.Fatalf("expected error for %q", endpoint)
		}
	}
}

func TestList_ResponseShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "wrapped", body: `{"data":[{"id":"a","isAllDay":true,"row_id":2}]}`},
		{name: "bare array", body: `[{"id":"a","isAllDay":true,"row_id":2}]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, calls := newServer(t, http.StatusOK, tt.body)
			rows, err := newTestClient(t, srv.URL).List(context.Background(), "Event_Data")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(rows) != 1 || rows[0].String("id") != "a" || rows[0]["isAllDay"] != true || rows[0].RowID() != 2 {
				t.Fatalf("unexpected rows: %v", rows)
			}
			got := (*calls)[0]
			if got.method != http.MethodGet || got.query["tabId"] != "Event_Data" {
				t.Fatalf("unexpected request: %+v", got)
			}
			if got.ua != "sheetcal/1.0" {
				t.Fatalf("expected user agent, got %q", got.ua)
			}
		})
	}
}

func TestAppend_SendsArrayOfRows(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{"message":"ok"}`)
	err := newTestClient(t, srv.URL).Append(context.Background(), "Event_Data", []any{"", "ESO", "id-1", "Title"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var got [][]any
	if err := json.Unmarshal([]byte((*calls)[0].body), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := [][]any{{"", "ESO", "id-1", "Title"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if (*calls)[0].method != http.MethodPost {
		t.Fatalf("expected POST, got %s", (*calls)[0].method)
	}
}

func TestUpdateDelete_Addressing(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	if err := c.Update(ctx, "Event_Data", store.ByColumn("id", "abc"), store.Row{"id": "abc", "title": "T"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.Delete(ctx, "settings", store.ByRowID(5)); err != nil {
		t.Fatalf("delete: %v", err)
	}

	put, del := (*calls)[0], (*calls)[1]
	if put.method != http.MethodPut || put.query["id"] != "abc" || put.query["tabId"] != "Event_Data" {
		t.Fatalf("unexpected PUT: %+v", put)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(put.body), &body); err != nil || body["title"] != "T" {
		t.Fatalf("unexpected PUT body %q: %v", put.body, err)
	}
	if del.method != http.MethodDelete || del.query["row_id"] != "5" || del.query["tabId"] != "settings" {
		t.Fatalf("unexpected DELETE: %+v", del)
	}
}

func TestAPIErrorTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "json message", status: 400, body: `{"message":"Invalid tab"}`, want: "Invalid tab"},
		{name: "json error", status: 401, body: `{"error":"Unauthorized"}`, want: "Unauthorized"},
		{name: "json without message", status: 500, body: `{"ok":false}`, want: "API error: 500"},
		{name: "html page", status: 404, body: "<!DOCTYPE html><html></html>", want: htmlErrorMessage},
		{name: "plain text", status: 502, body: "bad gateway", want: "bad gateway"},
		{name: "empty body", status: 503, body: "", want: "API error: 503"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := newServer(t, tt.status, tt.body)
			_, err := newTestClient(t, srv.URL).List(context.Background(), "Event_Data")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.want {
				t.Fatalf("expected %d %q, got %d %q", tt.status, tt.want, apiErr.StatusCode, apiErr.Message)
			}
		})
	}
}

func TestUpdate_RowIDInBody(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, http.StatusOK, `{}`)
	row := store.Row{"Key": "site_title", "Value": "x"}
	if err := newTestClient(t, srv.URL).Update(context.Background(), "settings", store.ByRowID(3), row); err != nil {
		t.Fatalf("update: %v", err)
	}

	put := (*calls)[0]
	if put.query["row_id"] != "3" || put.query["tabId"] != "settings" {
		t.Fatalf("unexpected PUT query: %+v", put.query)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(put.body), &body); err != nil {
		t.Fatalf("decode body %q: %v", put.body, err)
	}
	if body["row_id"] != float64(3) || body["Key"] != "site_title" || body["Value"] != "x" {
		t.Fatalf("expected row_id in PUT body, got %v", body)
	}
	if _, ok := row[store.RowIDField]; ok {
		t.Fatal("caller's row must not be modified")
	}
}

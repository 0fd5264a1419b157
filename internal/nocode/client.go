// Package nocode talks to a tabular-data HTTP API that exposes spreadsheet
// tabs as JSON rows.
package nocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sheetcal/internal/store"
)

// DefaultTimeout bounds every request to the API.
const DefaultTimeout = 15 * time.Second

// userAgentTransport stamps every request with the client's User-Agent.
type userAgentTransport struct {
	Transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "sheetcal/1.0")
	return t.Transport.RoundTrip(req)
}

// Client implements store.Table on top of the API endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API endpoint %q", endpoint)
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &userAgentTransport{Transport: http.DefaultTransport},
		},
		logger: logger,
	}, nil
}

var _ store.Table = (*Client)(nil)

// List fetches every row of tab. The API may answer with a bare array
// or with an object wrapping the rows under "data".
func (c *Client) List(ctx context.Context, tab string) ([]store.Row, error) {
	body, err := c.do(ctx, http.MethodGet, c.tabURL(tab, store.Key{}), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tab, err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tab, err)
	}
	c.logger.Debug("Listed rows", "tab", tab, "count", len(rows))
	return rows, nil
}

// Append adds one row given as values in column order.
func (c *Client) Append(ctx context.Context, tab string, values []any) error {
	payload, err := json.Marshal([][]any{values})
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, c.tabURL(tab, store.Key{}), payload); err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}
	return nil
}

// Update replaces the row addressed by key. A row id is sent in the body
// as well, where the API looks it up.
func (c *Client) Update(ctx context.Context, tab string, key store.Key, row store.Row) error {
	if key.RowID > 0 {
		body := make(store.Row, len(row)+1)
		for k, v := range row {
			body[k] = v
		}
		body[store.RowIDField] = key.RowID
		row = body
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPut, c.tabURL(tab, key), payload); err != nil {
		return fmt.Errorf("update %s in %s: %w", key, tab, err)
	}
	return nil
}

// Delete removes the row addressed by key.
func (c *Client) Delete(ctx context.Context, tab string, key store.Key) error {
	if _, err := c.do(ctx, http.MethodDelete, c.tabURL(tab, key), nil); err != nil {
		return fmt.Errorf("delete %s in %s: %w", key, tab, err)
	}
	return nil
}

// tabURL builds "<endpoint>?tabId=<tab>" plus the row address, if any.
// A column key is sent as "id" since that is the only lookup column the API accepts.
func (c *Client) tabURL(tab string, key store.Key) string {
	u, _ := url.Parse(c.endpoint)
	q := u.Query()
	q.Set("tabId", tab)
	switch {
	case key.RowID > 0:
		q.Set(store.RowIDField, strconv.Itoa(key.RowID))
	case key.Column != "":
		q.Set("id", key.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		c.logger.Warn("API request failed", "method", method, "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}
	return data, nil
}

func decodeRows(body []byte) ([]store.Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var rows []store.Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return rows, nil
	}
	var wrapped struct {
		Data []store.Row `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return wrapped.Data, nil
}

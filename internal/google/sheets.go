// Package google stores calendar rows in a Google Sheets spreadsheet.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sheetcal/internal/store"
)

// valueInput keeps cell text exactly as written.
const valueInput = "RAW"

// SheetsClient implements store.Table on one spreadsheet. Each tab is a
// sheet whose first row holds the column names; a row's row_id is its
// 1-based sheet row number.
type SheetsClient struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

var _ store.Table = (*SheetsClient)(nil)

// NewClient creates a Sheets client authenticated with the token saved by the auth command.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, tokenFile, spreadsheetID string) (*SheetsClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'auth' command first", tokenFile, err)
	}
	return NewClientWithOptions(ctx, logger, spreadsheetID, option.WithHTTPClient(config.Client(ctx, token)))
}

// NewClientWithOptions creates a Sheets client from raw client options.
func NewClientWithOptions(ctx context.Context, logger *slog.Logger, spreadsheetID string, opts ...option.ClientOption) (*SheetsClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{service: service, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// List reads every non-empty data row of tab.
func (c *SheetsClient) List(ctx context.Context, tab string) ([]store.Row, error) {
	header, rows, err := c.read(ctx, tab)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched sheet rows", "tab", tab, "count", len(rows))
	out := make([]store.Row, 0, len(rows))
	for i, cells := range rows {
		if blank(cells) {
			continue
		}
		r := make(store.Row, len(header)+1)
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(cells) {
				r[name] = cells[j]
			} else {
				r[name] = ""
			}
		}
		r[store.RowIDField] = i + 2
		out = append(out, r)
	}
	return out, nil
}

// Append adds values after the last data row.
func (c *SheetsClient) Append(ctx context.Context, tab string, values []any) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, a1(tab, "A1"), vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", tab, err)
	}
	c.logger.Debug("Appended sheet row", "tab", tab)
	return nil
}

// Update overwrites the addressed row, writing fields in header order.
// Header columns absent from row are cleared.
func (c *SheetsClient) Update(ctx context.Context, tab string, key store.Key, row store.Row) error {
	header, rows, err := c.read(ctx, tab)
	if err != nil {
		return err
	}
	n, err := locate(header, rows, key)
	if err != nil {
		return fmt.Errorf("update %s in %s: %w", key, tab, err)
	}
	values := make([]interface{}, len(header))
	for i, name := range header {
		if v, ok := row[name]; ok && v != nil {
			values[i] = v
		} else {
			values[i] = ""
		}
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err = c.service.Spreadsheets.Values.Update(c.spreadsheetID, a1(tab, fmt.Sprintf("A%d", n)), vr).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s in %s: %w", key, tab, err)
	}
	return nil
}

// Delete removes the addressed row from the sheet, shifting later rows up.
func (c *SheetsClient) Delete(ctx context.Context, tab string, key store.Key) error {
	n := key.RowID
	if n <= 0 {
		header, rows, err := c.read(ctx, tab)
		if err != nil {
			return err
		}
		if n, err = locate(header, rows, key); err != nil {
			return fmt.Errorf("delete %s in %s: %w", key, tab, err)
		}
	}
	sheetID, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(n - 1),
					EndIndex:        int64(n),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete %s in %s: %w", key, tab, err)
	}
	return nil
}

// read returns the header row and the data rows of tab.
func (c *SheetsClient) read(ctx context.Context, tab string) ([]string, [][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, quote(tab)).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}
	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = store.Text(v)
	}
	return header, resp.Values[1:], nil
}

func (c *SheetsClient) sheetID(ctx context.Context, tab string) (int64, error) {
	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", tab)
}

// locate resolves key to a 1-based sheet row number.
func locate(header []string, rows [][]interface{}, key store.Key) (int, error) {
	if key.RowID > 0 {
		if key.RowID < 2 || key.RowID-2 >= len(rows) {
			return 0, store.ErrRowNotFound
		}
		return key.RowID, nil
	}
	col := -1
	for i, name := range header {
		if name == key.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, fmt.Errorf("unknown column %q: %w", key.Column, store.ErrRowNotFound)
	}
	for i, cells := range rows {
		if col < len(cells) && store.Text(cells[col]) == key.Value {
			return i + 2, nil
		}
	}
	return 0, store.ErrRowNotFound
}

func blank(cells []interface{}) bool {
	for _, v := range cells {
		if store.Text(v) != "" {
			return false
		}
	}
	return true
}

func quote(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func a1(tab, cell string) string {
	return quote(tab) + "!" + cell
}

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// RowIDField is the field carrying a backend-assigned row identity.
const RowIDField = "row_id"

// Row is a loosely-typed record as returned by the persistence API.
// Values are strings, booleans, JSON numbers (float64) or nil.
type Row map[string]any

// String returns the field as trimmed text. Missing and nil fields are "".
func (r Row) String(key string) string {
	return Text(r[key])
}

// RowID returns the backend row identity, or 0 if the row carries none.
func (r Row) RowID() int {
	switch v := r[RowIDField].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Has reports whether the row has the field at all, even when empty.
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Text renders a row value as trimmed text.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Key addresses a single row, either by the value of an identifying column
// or by the backend row identity.
type Key struct {
	Column string
	Value  string
	RowID  int
}

// ByColumn addresses the row whose column equals value.
func ByColumn(column, value string) Key {
	return Key{Column: column, Value: value}
}

// ByRowID addresses a row by its backend row identity.
func ByRowID(id int) Key {
	return Key{RowID: id}
}

// Matches reports whether row is addressed by k.
func (k Key) Matches(row Row) bool {
	if k.RowID > 0 {
		return row.RowID() == k.RowID
	}
	return k.Column != "" && row.String(k.Column) == k.Value
}

func (k Key) String() string {
	if k.RowID > 0 {
		return fmt.Sprintf("%s=%d", RowIDField, k.RowID)
	}
	return fmt.Sprintf("%s=%s", k.Column, k.Value)
}

// Table is the contract of a spreadsheet-like persistence service.
// Appends take values in column order; updates take object rows.
type Table interface {
	List(ctx context.Context, tab string) ([]Row, error)
	Append(ctx context.Context, tab string, values []any) error
	Update(ctx context.Context, tab string, key Key, row Row) error
	Delete(ctx context.Context, tab string, key Key) error
}

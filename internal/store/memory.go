package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrReadOnly is returned by mutations on a read-only Memory table.
var ErrReadOnly = errors.New("table is read-only")

// ErrRowNotFound is returned when a Key addresses no row.
var ErrRowNotFound = errors.New("row not found")

// Memory is an in-memory Table. Rows get sequential row ids starting at 2,
// matching a sheet whose first row is the header.
type Memory struct {
	mu       sync.Mutex
	columns  map[string][]string
	tabs     map[string][]Row
	nextID   map[string]int
	readOnly bool
}

// NewMemory creates an empty table. columns maps a tab name to the column
// order used to interpret appended values.
func NewMemory(columns map[string][]string) *Memory {
	return &Memory{
		columns: columns,
		tabs:    make(map[string][]Row),
		nextID:  make(map[string]int),
	}
}

// ReadOnly makes every later mutation fail with ErrReadOnly.
func (m *Memory) ReadOnly() *Memory {
	m.mu.Lock()
	m.readOnly = true
	m.mu.Unlock()
	return m
}

// Seed inserts rows into tab regardless of read-only mode.
func (m *Memory) Seed(tab string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.insert(tab, r)
	}
}

func (m *Memory) insert(tab string, r Row) {
	if m.nextID[tab] == 0 {
		m.nextID[tab] = 2
	}
	cp := cloneRow(r)
	cp[RowIDField] = m.nextID[tab]
	m.nextID[tab]++
	m.tabs[tab] = append(m.tabs[tab], cp)
}

func (m *Memory) List(_ context.Context, tab string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(m.tabs[tab]))
	for _, r := range m.tabs[tab] {
		out = append(out, cloneRow(r))
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, tab string, values []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	cols, ok := m.columns[tab]
	if !ok {
		return fmt.Errorf("unknown tab %q", tab)
	}
	r := make(Row, len(cols))
	for i, c := range cols {
		if i < len(values) {
			r[c] = values[i]
		} else {
			r[c] = ""
		}
	}
	m.insert(tab, r)
	return nil
}

func (m *Memory) Update(_ context.Context, tab string, key Key, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	for i, r := range m.tabs[tab] {
		if !key.Matches(r) {
			continue
		}
		next := cloneRow(row)
		next[RowIDField] = r[RowIDField]
		m.tabs[tab][i] = next
		return nil
	}
	return fmt.Errorf("update %s in %s: %w", key, tab, ErrRowNotFound)
}

func (m *Memory) Delete(_ context.Context, tab string, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	rows := m.tabs[tab]
	for i, r := range rows {
		if key.Matches(r) {
			m.tabs[tab] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s in %s: %w", key, tab, ErrRowNotFound)
}

func cloneRow(r Row) Row {
	cp := make(Row, len(r)+1)
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

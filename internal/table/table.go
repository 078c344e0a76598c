package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlankHeader is returned when a header name is empty or whitespace.
	ErrBlankHeader = errors.New("blank header")
	// ErrDuplicateHeader is returned when a header appears more than once.
	ErrDuplicateHeader = errors.New("duplicate header")
	// ErrUnknownColumn is returned when a row carries a key that is not a header.
	ErrUnknownColumn = errors.New("unknown column")
)

// Row maps header names to cells. Missing keys read as Empty.
type Row map[string]Cell

// Get returns the cell stored under header, or Empty.
func (r Row) Get(header string) Cell {
	if r == nil {
		return Empty()
	}
	return r[header]
}

// Table is an immutable, fully materialized sheet: ordered headers and rows.
type Table struct {
	source  string
	headers []string
	index   map[string]int
	rows    []Row
}

// New validates headers and rows and returns a Table. Rows are copied so the
// caller may reuse its maps afterwards.
func New(headers []string, rows []Row, source string) (*Table, error) {
	idx := make(map[string]int, len(headers))
	hs := make([]string, len(headers))
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			return nil, fmt.Errorf("header %d: %w", i+1, ErrBlankHeader)
		}
		if _, dup := idx[h]; dup {
			return nil, fmt.Errorf("header %q: %w", h, ErrDuplicateHeader)
		}
		idx[h] = i
		hs[i] = h
	}
	rs := make([]Row, len(rows))
	for i, r := range rows {
		cp := make(Row, len(r))
		for k, c := range r {
			if _, ok := idx[k]; !ok {
				return nil, fmt.Errorf("row %d: column %q: %w", i+1, k, ErrUnknownColumn)
			}
			cp[k] = c
		}
		rs[i] = cp
	}
	return &Table{source: source, headers: hs, index: idx, rows: rs}, nil
}

// MustNew is New for fixtures and tests; it panics on invalid input.
func MustNew(headers []string, rows []Row, source string) *Table {
	t, err := New(headers, rows, source)
	if err != nil {
		panic(err)
	}
	return t
}

// derive shares headers with t but holds a different row selection.
func (t *Table) derive(rows []Row) *Table {
	return &Table{source: t.source, headers: t.headers, index: t.index, rows: rows}
}

// Select returns a Table with the same headers holding only rows for which
// keep returns true, in their original order.
func (t *Table) Select(keep func(Row) bool) *Table {
	out := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return t.derive(out)
}

// Slice returns rows [from, to) as a Table sharing t's headers.
func (t *Table) Slice(from, to int) *Table {
	return t.derive(t.rows[from:to:to])
}

// Source is the name of the file the table was decoded from.
func (t *Table) Source() string { return t.source }

// Headers returns a copy of the ordered header list.
func (t *Table) Headers() []string {
	out := make([]string, len(t.headers))
	copy(out, t.headers)
	return out
}

// Has reports whether header is a column of t.
func (t *Table) Has(header string) bool {
	_, ok := t.index[header]
	return ok
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i. Callers must not modify the returned map.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Cell returns the cell at (row i, header).
func (t *Table) Cell(i int, header string) Cell { return t.rows[i].Get(header) }

// Strings renders rows [0, limit) as string records in header order.
func (t *Table) Strings(limit int) [][]string {
	if limit < 0 || limit > len(t.rows) {
		limit = len(t.rows)
	}
	out := make([][]string, 0, limit)
	for _, r := range t.rows[:limit] {
		rec := make([]string, len(t.headers))
		for j, h := range t.headers {
			rec[j] = r.Get(h).String()
		}
		out = append(out, rec)
	}
	return out
}

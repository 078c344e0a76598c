package analysis

import (
	"strings"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 10

// Filter keeps rows whose case-folded cell text contains the case-folded
// query. With scope set only that column is searched; otherwise any column
// may match. An empty query returns t itself.
func Filter(t *table.Table, query, scope string) *table.Table {
	if query == "" || t == nil {
		return t
	}
	needle := strings.ToLower(query)
	if scope != "" {
		return t.Select(func(r table.Row) bool {
			return contains(r.Get(scope), needle)
		})
	}
	headers := t.Headers()
	return t.Select(func(r table.Row) bool {
		for _, h := range headers {
			if contains(r.Get(h), needle) {
				return true
			}
		}
		return false
	})
}

func contains(c table.Cell, needle string) bool {
	return strings.Contains(strings.ToLower(c.String()), needle)
}

// Page is one window over a (filtered) table.
type Page struct {
	Number     int          `json:"page"`
	Size       int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	TotalRows  int          `json:"total_rows"`
	Start      int          `json:"start"` // 0-based, inclusive
	End        int          `json:"end"`   // exclusive
	Headers    []string     `json:"headers"`
	Rows       []table.Row  `json:"rows"`
	Table      *table.Table `json:"-"`
}

// Paginate returns page n (1-based) of t. n is clamped into
// [1, ceil(rows/size)], or 1 for an empty table. size <= 0 uses
// DefaultPageSize.
func Paginate(t *table.Table, n, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := 0
	if t != nil {
		total = t.Len()
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	p := Page{
		Number:     n,
		Size:       size,
		TotalPages: pages,
		TotalRows:  total,
		Start:      start,
		End:        end,
		Rows:       []table.Row{},
	}
	if t == nil {
		return p
	}
	p.Headers = t.Headers()
	p.Table = t.Slice(start, end)
	for i := 0; i < p.Table.Len(); i++ {
		p.Rows = append(p.Rows, p.Table.Row(i))
	}
	return p
}

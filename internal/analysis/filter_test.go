package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

func peopleTable() *table.Table {
	return table.MustNew([]string{"Name", "Age", "Notes"}, []table.Row{
		{"Name": table.Text("Alice"), "Age": table.Number(31), "Notes": table.Text("likes tea")},
		{"Name": table.Text("Carol"), "Age": table.Number(45), "Notes": table.Text("Bob Smith referred")},
		{"Name": table.Text("Dave"), "Notes": table.Text("")},
		{"Name": table.Text("bobby"), "Age": table.Number(19)},
	}, "people.csv")
}

func names(t *table.Table) []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.Cell(i, "Name").String()
	}
	return out
}

func TestFilterEmptyQueryIsIdentity(t *testing.T) {
	tbl := peopleTable()
	assert.Same(t, tbl, Filter(tbl, "", ""))
	assert.Same(t, tbl, Filter(tbl, "", "Name"))
}

func TestFilterAnyColumnCaseInsensitive(t *testing.T) {
	got := Filter(peopleTable(), "bob", "")
	assert.Equal(t, []string{"Carol", "bobby"}, names(got))
	assert.Equal(t, []string{"Name", "Age", "Notes"}, got.Headers())
}

func TestFilterScoped(t *testing.T) {
	tbl := peopleTable()
	assert.Equal(t, []string{"bobby"}, names(Filter(tbl, "BOB", "Name")))
	// Numbers are matched through their string form.
	assert.Equal(t, []string{"Alice"}, names(Filter(tbl, "31", "Age")))
	assert.Equal(t, 0, Filter(tbl, "bob", "Missing").Len())
}

func TestFilterEmptyCellsNeverMatch(t *testing.T) {
	got := Filter(peopleTable(), " ", "Notes")
	assert.Equal(t, []string{"Alice", "Carol"}, names(got))
}

func numbered(n int) *table.Table {
	rows := make([]table.Row, n)
	for i := range rows {
		rows[i] = table.Row{"Name": table.Text(fmt.Sprintf("r%d", i))}
	}
	return table.MustNew([]string{"Name"}, rows, "n")
}

func TestPaginate(t *testing.T) {
	tbl := numbered(25)
	cases := []struct {
		name       string
		page       int
		wantPage   int
		start, end int
	}{
		{"first", 1, 1, 0, 10},
		{"middle", 2, 2, 10, 20},
		{"last partial", 3, 3, 20, 25},
		{"beyond last clamps", 9, 3, 20, 25},
		{"zero clamps to first", 0, 1, 0, 10},
		{"negative clamps to first", -4, 1, 0, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(tbl, tc.page, 0)
			assert.Equal(t, tc.wantPage, p.Number)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 25, p.TotalRows)
			assert.Equal(t, tc.start, p.Start)
			assert.Equal(t, tc.end, p.End)
			require.Len(t, p.Rows, tc.end-tc.start)
			assert.Equal(t, fmt.Sprintf("r%d", tc.start), p.Rows[0].Get("Name").String())
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(Filter(peopleTable(), "zzz", ""), 4, DefaultPageSize)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 0, p.TotalRows)
	assert.Empty(t, p.Rows)
	assert.Equal(t, 0, p.Start)
	assert.Equal(t, 0, p.End)
}

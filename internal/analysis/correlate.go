package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

// CorrelationMethod selects how pairs of numeric columns are compared.
type CorrelationMethod string

const (
	Pearson  CorrelationMethod = "pearson"
	Spearman CorrelationMethod = "spearman"
)

// ErrUnknownMethod is returned by ParseMethod.
var ErrUnknownMethod = errors.New("unknown correlation method")

// ParseMethod maps "pearson" (the default) and "spearman".
func ParseMethod(s string) (CorrelationMethod, error) {
	switch CorrelationMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", Pearson:
		return Pearson, nil
	case Spearman:
		return Spearman, nil
	}
	return "", fmt.Errorf("%w: %q (use pearson|spearman)", ErrUnknownMethod, s)
}

// Correlation is the coefficient of one column pair over the N rows where
// both values are numbers.
type Correlation struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R Measure `json:"r"`
	N int     `json:"n"`
}

// CorrelationMatrix holds every pairwise coefficient of Columns.
// Values[i][j] is undefined when fewer than two complete rows exist or
// either side is constant.
type CorrelationMatrix struct {
	Method  CorrelationMethod `json:"method"`
	Columns []string          `json:"columns"`
	Values  [][]Measure       `json:"values"`
	pairs   []Correlation
}

// Correlate computes pairwise coefficients between headers. Rows where
// either cell is not a number are left out of that pair only.
func Correlate(t *table.Table, headers []string, method CorrelationMethod) CorrelationMatrix {
	m := CorrelationMatrix{Method: method, Columns: headers, Values: make([][]Measure, len(headers))}
	for i := range headers {
		m.Values[i] = make([]Measure, len(headers))
	}
	if t == nil {
		return m
	}
	for i := range headers {
		for j := i; j < len(headers); j++ {
			x, y := Paired(t, headers[i], headers[j])
			r := Undefined()
			if len(x) > 1 {
				if method == Spearman {
					x, y = ranks(x), ranks(y)
				}
				r = Defined(stat.Correlation(x, y, nil))
			}
			m.Values[i][j], m.Values[j][i] = r, r
			if i != j {
				m.pairs = append(m.pairs, Correlation{A: headers[i], B: headers[j], R: r, N: len(x)})
			}
		}
	}
	return m
}

// Strongest returns up to n defined pairs ordered by |r| descending, ties
// by column names.
func (m CorrelationMatrix) Strongest(n int) []Correlation {
	out := make([]Correlation, 0, len(m.pairs))
	for _, p := range m.pairs {
		if p.R.IsDefined() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, _ := out[i].R.Get()
		rj, _ := out[j].R.Get()
		if math.Abs(ri) == math.Abs(rj) {
			return out[i].A+out[i].B < out[j].A+out[j].B
		}
		return math.Abs(ri) > math.Abs(rj)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ranks replaces values by their 1-based rank; ties share the average rank.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })
	out := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

const (
	DefaultBins = 10
	MaxBins     = 100
)

// ErrInvalidBins is returned by ValidateBins.
var ErrInvalidBins = errors.New("invalid bin count")

// ValidateBins accepts 1..MaxBins.
func ValidateBins(n int) error {
	if n < 1 || n > MaxBins {
		return fmt.Errorf("%w: %d (use 1..%d)", ErrInvalidBins, n, MaxBins)
	}
	return nil
}

// Bin is one histogram bucket covering [Lo, Hi). The last bin also holds Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Label renders the bucket bounds for chart axes.
func (b Bin) Label() string {
	return fmt.Sprintf("%s-%s", trimFloat(b.Lo), trimFloat(b.Hi))
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%.4g", Round2(v))
}

// NumericValues returns every cell of header that parses as a number, in
// row order, and how many non-empty cells did not.
func NumericValues(t *table.Table, header string) (values []float64, rejected int) {
	if t == nil || !t.Has(header) {
		return nil, 0
	}
	values = make([]float64, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		cell := t.Cell(i, header)
		if cell.IsEmpty() {
			continue
		}
		f, ok := cell.Float()
		if !ok {
			rejected++
			continue
		}
		values = append(values, f)
	}
	return values, rejected
}

// Paired returns the rows where both a and b hold numbers.
func Paired(t *table.Table, a, b string) (xs, ys []float64) {
	if t == nil {
		return nil, nil
	}
	for i := 0; i < t.Len(); i++ {
		va, okA := t.Cell(i, a).Float()
		vb, okB := t.Cell(i, b).Float()
		if okA && okB {
			xs = append(xs, va)
			ys = append(ys, vb)
		}
	}
	return xs, ys
}

// Histogram splits values into n equal-width bins between their minimum
// and maximum. A single distinct value gets a unit-wide range.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n < 1 {
		return []Bin{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}
	// Scaled before subtracting so extreme ranges do not overflow.
	step := hi/float64(n) - lo/float64(n)
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = lo + step*float64(i)
	}
	dividers[n] = hi
	// stat.Histogram wants the last divider strictly above the maximum.
	upper := append([]float64(nil), dividers...)
	upper[n] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, upper, sorted, nil)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	return bins
}

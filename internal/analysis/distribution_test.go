package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counts(bins []Bin) []int {
	out := make([]int, len(bins))
	for i, b := range bins {
		out[i] = b.Count
	}
	return out
}

func TestHistogramEqualWidth(t *testing.T) {
	bins := Histogram([]float64{10, 0, 1, 2, 5, 9.99, 10}, 4)
	require.Len(t, bins, 4)
	assert.Equal(t, Bin{Lo: 0, Hi: 2.5, Count: 3}, bins[0])
	assert.Equal(t, []int{3, 0, 1, 3}, counts(bins), "maximum lands in the last bin")
	assert.Equal(t, 10.0, bins[3].Hi)
	assert.Equal(t, "7.5-10", bins[3].Label())
}

func TestHistogramSingleValue(t *testing.T) {
	bins := Histogram([]float64{3, 3, 3}, 2)
	assert.Equal(t, []Bin{{Lo: 3, Hi: 3.5, Count: 3}, {Lo: 3.5, Hi: 4, Count: 0}}, bins)
}

func TestHistogramEmpty(t *testing.T) {
	assert.Equal(t, []Bin{}, Histogram(nil, 10))
	assert.Equal(t, []Bin{}, Histogram([]float64{1}, 0))
}

func TestHistogramExtremeRange(t *testing.T) {
	bins := Histogram([]float64{-math.MaxFloat64, 0, math.MaxFloat64}, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, []int{1, 2}, counts(bins))
	assert.Equal(t, math.MaxFloat64, bins[1].Hi)
}

func TestValidateBins(t *testing.T) {
	assert.NoError(t, ValidateBins(1))
	assert.NoError(t, ValidateBins(MaxBins))
	assert.ErrorIs(t, ValidateBins(0), ErrInvalidBins)
	assert.ErrorIs(t, ValidateBins(MaxBins+1), ErrInvalidBins)
}

func TestNumericValuesAndPaired(t *testing.T) {
	values, rejected := NumericValues(column(1, "x", nil, "2.5"), "v")
	assert.Equal(t, []float64{1, 2.5}, values)
	assert.Equal(t, 1, rejected)

	values, rejected = NumericValues(column(1), "missing")
	assert.Empty(t, values)
	assert.Zero(t, rejected)

	h := []string{"a", "b"}
	xs, ys := Paired(numbers(h, []any{1, 2}, []any{"x", 3}, []any{4, 5}), "a", "b")
	assert.Equal(t, []float64{1, 4}, xs)
	assert.Equal(t, []float64{2, 5}, ys)
}

package render

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func result(sums ...float64) analysis.AggregationResult {
	res := analysis.AggregationResult{Category: "City", Value: "Sales"}
	for i, s := range sums {
		res.Points = append(res.Points, analysis.SeriesPoint{Category: fmt.Sprintf("city-%d", i), Sum: s, Count: 1})
	}
	res.Groups = len(sums)
	return res
}

func TestChartRendersPNG(t *testing.T) {
	for _, typ := range []ChartType{Bar, Line, Area, Pie} {
		t.Run(string(typ), func(t *testing.T) {
			var buf bytes.Buffer
			err := Chart(&buf, result(17, 5, 3.25, 1), ChartOptions{Type: typ, Width: 640, Height: 360})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestChartSinglePointAndZeroSums(t *testing.T) {
	for _, typ := range []ChartType{Bar, Line, Area} {
		var buf bytes.Buffer
		require.NoError(t, Chart(&buf, result(42), ChartOptions{Type: typ}), typ)
		buf.Reset()
		require.NoError(t, Chart(&buf, result(0, 0), ChartOptions{Type: typ}), typ)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}
}

func TestChartNegativeBars(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Chart(&buf, result(10, -4), ChartOptions{Type: Bar}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestChartNoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Chart(&buf, analysis.AggregationResult{}, ChartOptions{}), ErrNoData)
	assert.ErrorIs(t, Chart(&buf, result(0, -1), ChartOptions{Type: Pie}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestChartUnknownType(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Chart(&buf, result(1), ChartOptions{Type: "radar"}), ErrUnknownType)
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]ChartType{"": Bar, "BAR": Bar, " line ": Line, "area": Area, "pie": Pie} {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseType("donut")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "short", label("short", 12))
	assert.Equal(t, "a very l...", label("a very long category", 11))
}

func TestHistogramRendersPNG(t *testing.T) {
	var buf bytes.Buffer
	bins := analysis.Histogram([]float64{1, 2, 2, 3, 3, 3, 4, 10}, analysis.DefaultBins)
	require.NoError(t, Histogram(&buf, bins, ChartOptions{Title: "Sales", XLabel: "Sales"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, Histogram(&buf, analysis.Histogram([]float64{7}, 1), ChartOptions{Width: 320, Height: 200}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestHistogramNoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Histogram(&buf, nil, ChartOptions{}), ErrNoData)
	assert.ErrorIs(t, Histogram(&buf, []analysis.Bin{{Lo: 0, Hi: 1}}, ChartOptions{}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestScatterRendersPNG(t *testing.T) {
	var buf bytes.Buffer
	err := Scatter(&buf, []float64{1, 2, 3, 4}, []float64{2, 4, 5, 9}, ChartOptions{XLabel: "x", YLabel: "y"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, Scatter(&buf, []float64{5, 5}, []float64{0, 0}, ChartOptions{}), "constant axes")
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestScatterErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Scatter(&buf, nil, nil, ChartOptions{}), ErrNoData)
	assert.ErrorIs(t, Scatter(&buf, []float64{1}, []float64{1, 2}, ChartOptions{}), ErrLengthMismatch)
}

func TestSpanRange(t *testing.T) {
	r := spanRange([]float64{0, 10})
	assert.Equal(t, -0.5, r.Min)
	assert.Equal(t, 10.5, r.Max)
	r = spanRange([]float64{4})
	assert.Less(t, r.Min, 4.0)
	assert.Greater(t, r.Max, 4.0)
}

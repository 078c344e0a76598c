package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
)

// ErrLengthMismatch is returned by Scatter when xs and ys differ in length.
var ErrLengthMismatch = errors.New("x and y lengths differ")

// Histogram draws bins as touching bars labeled by their bounds.
func Histogram(w io.Writer, bins []analysis.Bin, opt ChartOptions) error {
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total == 0 {
		return ErrNoData
	}
	width, height := opt.size()
	slot := max(2, (width-120)/len(bins))
	bars := make([]chart.Value, len(bins))
	top := 0.0
	for i, b := range bins {
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: label(b.Label(), 12),
			Style: chart.Style{FillColor: palette[0], StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		}
		top = math.Max(top, float64(b.Count))
	}
	yName := opt.YLabel
	if yName == "" {
		yName = "count"
	}
	bc := chart.BarChart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		BarWidth:   max(1, slot-1),
		BarSpacing: 1,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 7},
		YAxis:      chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05}},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// Scatter draws one dot per (xs[i], ys[i]) pair.
func Scatter(w io.Writer, xs, ys []float64, opt ChartOptions) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return ErrNoData
	}
	width, height := opt.size()
	ch := chart.Chart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: opt.XLabel, Range: spanRange(xs)},
		YAxis:      chart.YAxis{Name: opt.YLabel, Range: spanRange(ys)},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    opt.YLabel,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent, DotWidth: 3, DotColor: palette[0]},
		}},
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// spanRange pads the data range by 5% and never collapses to zero width.
func spanRange(vs []float64) *chart.ContinuousRange {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi/2 - lo/2) * 0.1
	if pad == 0 {
		pad = math.Max(1, math.Abs(lo)*0.05)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
)

// ChartType selects the PNG layout.
type ChartType string

const (
	Bar  ChartType = "bar"
	Line ChartType = "line"
	Area ChartType = "area"
	Pie  ChartType = "pie"
)

// MaxPieSlices bounds pie charts; further points are left out.
const MaxPieSlices = 8

var (
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("no data to chart")
	// ErrUnknownType is returned by ParseType.
	ErrUnknownType = errors.New("unknown chart type")
)

// ParseType maps a user string to a ChartType; empty means Bar.
func ParseType(s string) (ChartType, error) {
	switch ChartType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Bar:
		return Bar, nil
	case Line:
		return Line, nil
	case Area:
		return Area, nil
	case Pie:
		return Pie, nil
	}
	return "", fmt.Errorf("%w: %q (use bar|line|area|pie)", ErrUnknownType, s)
}

// ChartOptions controls PNG rendering.
type ChartOptions struct {
	Type   ChartType
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

func (o ChartOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 960
	}
	if h <= 0 {
		h = 540
	}
	return w, h
}

var palette = []drawing.Color{
	drawing.ColorFromHex("3b82f6"),
	drawing.ColorFromHex("10b981"),
	drawing.ColorFromHex("f59e0b"),
	drawing.ColorFromHex("ef4444"),
	drawing.ColorFromHex("8b5cf6"),
	drawing.ColorFromHex("06b6d4"),
	drawing.ColorFromHex("84cc16"),
	drawing.ColorFromHex("f97316"),
}

// Chart writes res as a PNG to w.
func Chart(w io.Writer, res analysis.AggregationResult, opt ChartOptions) error {
	if len(res.Points) == 0 {
		return ErrNoData
	}
	if opt.Title == "" && res.Category != "" && res.Value != "" {
		opt.Title = fmt.Sprintf("%s by %s", res.Value, res.Category)
	}
	if opt.XLabel == "" {
		opt.XLabel = res.Category
	}
	if opt.YLabel == "" {
		opt.YLabel = res.Value
	}

	var err error
	switch opt.Type {
	case "", Bar:
		err = barChart(w, res.Points, opt)
	case Line:
		err = lineChart(w, res.Points, opt, false)
	case Area:
		err = lineChart(w, res.Points, opt, true)
	case Pie:
		err = pieChart(w, res.Points, opt)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, opt.Type)
	}
	if err != nil && !errors.Is(err, ErrNoData) {
		return fmt.Errorf("render %s chart: %w", opt.Type, err)
	}
	return err
}

// valueRange always includes zero and never collapses to a zero-width range.
func valueRange(points []analysis.SeriesPoint) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, p := range points {
		lo = math.Min(lo, p.Sum)
		hi = math.Max(hi, p.Sum)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func label(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func barChart(w io.Writer, points []analysis.SeriesPoint, opt ChartOptions) error {
	width, height := opt.size()
	slot := (width - 120) / len(points)
	if slot < 2 {
		slot = 2
	}
	bars := make([]chart.Value, len(points))
	for i, p := range points {
		col := palette[i%len(palette)]
		bars[i] = chart.Value{
			Value: p.Sum,
			Label: label(p.Category, 12),
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}
	yr := valueRange(points)
	bc := chart.BarChart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		BarWidth:   max(1, slot*3/5),
		BarSpacing: max(1, slot*2/5),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 8},
		YAxis:      chart.YAxis{Name: opt.YLabel, Range: yr},
		Bars:       bars,
	}
	if yr.Min < 0 {
		bc.UseBaseValue = true
		bc.BaseValue = 0
	}
	return bc.Render(chart.PNG, w)
}

func lineChart(w io.Writer, points []analysis.SeriesPoint, opt ChartOptions, fill bool) error {
	width, height := opt.size()
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Sum
		ticks[i] = chart.Tick{Value: float64(i), Label: label(p.Category, 12)}
	}
	st := chart.Style{StrokeColor: palette[0], StrokeWidth: 2, DotColor: palette[0], DotWidth: 3}
	if fill {
		st.FillColor = palette[0].WithAlpha(96)
	}
	ch := chart.Chart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  opt.XLabel,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(points)) - 0.5},
			Ticks: ticks,
			Style: chart.Style{FontSize: 8},
		},
		YAxis:  chart.YAxis{Name: opt.YLabel, Range: valueRange(points)},
		Series: []chart.Series{chart.ContinuousSeries{Name: opt.YLabel, XValues: xs, YValues: ys, Style: st}},
	}
	return ch.Render(chart.PNG, w)
}

func pieChart(w io.Writer, points []analysis.SeriesPoint, opt ChartOptions) error {
	width, height := opt.size()
	var values []chart.Value
	for _, p := range points {
		if len(values) == MaxPieSlices {
			break
		}
		// Only positive sums can be drawn as slices.
		if p.Sum <= 0 {
			continue
		}
		col := palette[len(values)%len(palette)]
		values = append(values, chart.Value{
			Value: p.Sum,
			Label: label(p.Category, 16),
			Style: chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	pc := chart.PieChart{
		Title:  opt.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

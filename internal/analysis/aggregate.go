package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

// DefaultCap is the number of groups kept when no cap is given.
const DefaultCap = 20

// AllowedCaps lists the caps accepted at the configuration boundary.
var AllowedCaps = []int{10, 20, 50, 100}

// ErrInvalidCap is returned by ValidateCap for caps outside AllowedCaps.
var ErrInvalidCap = errors.New("invalid cap")

// ValidateCap checks a cap against AllowedCaps.
func ValidateCap(limit int) error {
	for _, c := range AllowedCaps {
		if c == limit {
			return nil
		}
	}
	return fmt.Errorf("%w: %d (allowed: 10, 20, 50, 100)", ErrInvalidCap, limit)
}

// CoercionPolicy decides what happens to value cells that do not parse as
// numbers during aggregation.
type CoercionPolicy int

const (
	// ZeroOnCoercionFailure counts unparsable values as 0. The row still
	// contributes to its group's count.
	ZeroOnCoercionFailure CoercionPolicy = iota
	// SkipOnCoercionFailure drops rows whose non-empty value does not parse
	// and reports them in AggregationResult.Skipped.
	SkipOnCoercionFailure
)

// ErrUnknownPolicy is returned by ParsePolicy.
var ErrUnknownPolicy = errors.New("unknown coercion policy")

// ParsePolicy maps "zero" and "skip" (or "strict") to a CoercionPolicy.
func ParsePolicy(s string) (CoercionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return ZeroOnCoercionFailure, nil
	case "skip", "strict":
		return SkipOnCoercionFailure, nil
	default:
		return 0, fmt.Errorf("%w: %q (use zero|skip)", ErrUnknownPolicy, s)
	}
}

func (p CoercionPolicy) String() string {
	if p == SkipOnCoercionFailure {
		return "skip"
	}
	return "zero"
}

// SeriesPoint is one aggregated category.
type SeriesPoint struct {
	Category string  `json:"category"`
	Sum      float64 `json:"sum"`
	Count    int     `json:"count"`
}

// AggregationResult is the chart-ready series: points sorted by Sum
// descending and truncated to the cap.
type AggregationResult struct {
	Category string        `json:"category_header,omitempty"`
	Value    string        `json:"value_header,omitempty"`
	Points   []SeriesPoint `json:"points"`
	// Groups is the number of distinct categories before truncation.
	Groups int `json:"groups"`
	// Skipped counts value cells dropped under SkipOnCoercionFailure.
	Skipped int `json:"skipped,omitempty"`
}

// Aggregator groups rows by a category column and sums a value column.
type Aggregator struct {
	Policy     CoercionPolicy
	Classifier Classifier
}

// NewAggregator returns an Aggregator with the permissive default policy.
func NewAggregator() Aggregator {
	return Aggregator{Policy: ZeroOnCoercionFailure, Classifier: DefaultClassifier()}
}

// ValueKind is the classifier's verdict on the value column. Aggregate does
// not require Numeric; callers use this as a hint.
func (a Aggregator) ValueKind(t *table.Table, valueHeader string) Kind {
	return a.Classifier.Classify(t, valueHeader)
}

type group struct {
	point SeriesPoint
	sum   decimal.Decimal
}

// Aggregate groups t by categoryHeader, sums valueHeader per group, rounds
// each sum to 2 decimals (half away from zero), sorts by sum descending
// with ties kept in first-seen order and keeps the first limit groups
// (DefaultCap when limit <= 0).
// Missing header selections yield an empty result.
func (a Aggregator) Aggregate(t *table.Table, categoryHeader, valueHeader string, limit int) AggregationResult {
	res := AggregationResult{Category: categoryHeader, Value: valueHeader, Points: []SeriesPoint{}}
	if t == nil || categoryHeader == "" || valueHeader == "" {
		return res
	}
	if limit <= 0 {
		limit = DefaultCap
	}

	index := make(map[string]int)
	var groups []*group
	for i := 0; i < t.Len(); i++ {
		key := t.Cell(i, categoryHeader).String()
		if key == "" {
			continue
		}
		v, ok := a.coerce(t.Cell(i, valueHeader))
		if !ok {
			res.Skipped++
			continue
		}
		gi, seen := index[key]
		if !seen {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, &group{point: SeriesPoint{Category: key}, sum: decimal.Zero})
		}
		g := groups[gi]
		g.sum = g.sum.Add(decimal.NewFromFloat(v))
		g.point.Count++
	}

	points := make([]SeriesPoint, len(groups))
	for i, g := range groups {
		g.point.Sum = saturate(g.sum.Round(2))
		points[i] = g.point
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Sum > points[j].Sum })

	res.Groups = len(points)
	if len(points) > limit {
		points = points[:limit]
	}
	res.Points = points
	return res
}

// coerce applies the policy. ok=false means the row must be skipped.
func (a Aggregator) coerce(c table.Cell) (float64, bool) {
	if c.IsEmpty() {
		return 0, true
	}
	if f, ok := c.Float(); ok {
		return f, true
	}
	if a.Policy == SkipOnCoercionFailure {
		return 0, false
	}
	return 0, true
}

// Round2 rounds v to two decimal places using decimal arithmetic on the
// shortest representation of v, so 1.005 rounds to 1.01. NaN and
// infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return saturate(decimal.NewFromFloat(v).Round(2))
}

// saturate converts d to the nearest float64, clamping magnitudes beyond
// the float64 range to ±math.MaxFloat64 so results stay finite.
func saturate(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// SeriesSummary describes the displayed (truncated) points.
type SeriesSummary struct {
	Points int     `json:"points"`
	Max    Measure `json:"max"`
	Min    Measure `json:"min"`
	Mean   Measure `json:"mean"`
}

// Summarize reports count, max, min and mean of the sums in res.Points.
func Summarize(res AggregationResult) SeriesSummary {
	s := SeriesSummary{Points: len(res.Points)}
	if len(res.Points) == 0 {
		return s
	}
	sums := make([]float64, len(res.Points))
	for i, p := range res.Points {
		sums[i] = p.Sum
	}
	if v, err := stats.Max(sums); err == nil {
		s.Max = Defined(v)
	}
	if v, err := stats.Min(sums); err == nil {
		s.Min = Defined(v)
	}
	s.Mean = mean(sums)
	return s
}

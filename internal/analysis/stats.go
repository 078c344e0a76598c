package analysis

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

const (
	// MaxOutlierSamples bounds the outlier values copied into a Detail.
	MaxOutlierSamples = 10
	// DefaultTopValues is how many frequent values a TextDetail lists.
	DefaultTopValues = 5
)

// ColumnStats summarizes one column over the whole table. Numeric columns
// fill Average/Max/Min; textual columns fill Unique.
type ColumnStats struct {
	Header string `json:"header"`
	Kind   Kind   `json:"kind"`
	// Count is the numeric population for Numeric columns and the number of
	// non-empty values for Textual ones.
	Count   int     `json:"count"`
	Average Measure `json:"average"`
	Max     Measure `json:"max"`
	Min     Measure `json:"min"`
	Unique  int     `json:"unique,omitempty"`
	// Rejected counts non-empty values dropped from a Numeric population
	// because they did not parse. A high value means the sample window
	// misjudged the column.
	Rejected int    `json:"rejected,omitempty"`
	Sample   Sample `json:"sample"`
	// Detail is only computed when Calculator.Extended is set.
	Detail *Detail `json:"detail,omitempty"`
}

// Detail holds the extended descriptive statistics of a column.
type Detail struct {
	// Nulls counts empty cells; Completeness is the non-empty share of rows.
	Nulls        int            `json:"nulls"`
	Completeness Measure        `json:"completeness"`
	Numeric      *NumericDetail `json:"numeric,omitempty"`
	Text         *TextDetail    `json:"text,omitempty"`
}

// NumericDetail describes the distribution of a numeric population.
// Spread measures use the sample (n-1) denominator.
type NumericDetail struct {
	Median   Measure `json:"median"`
	Mode     Measure `json:"mode"`
	StdDev   Measure `json:"std_dev"`
	Variance Measure `json:"variance"`
	Q1       Measure `json:"q1"`
	Q3       Measure `json:"q3"`
	Skewness Measure `json:"skewness"`
	Kurtosis Measure `json:"kurtosis"`
	// OutlierCount counts values outside [Q1-1.5*IQR, Q3+1.5*IQR];
	// Outliers lists the first MaxOutlierSamples of them in row order.
	OutlierCount int       `json:"outlier_count"`
	Outliers     []float64 `json:"outliers,omitempty"`
}

// TextDetail describes value lengths (in runes) and the most frequent values.
type TextDetail struct {
	MinLength int          `json:"min_length"`
	MaxLength int          `json:"max_length"`
	AvgLength Measure      `json:"avg_length"`
	TopValues []ValueCount `json:"top_values"`
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Calculator computes ColumnStats. Classification is sampled; the
// statistics themselves always cover every row.
type Calculator struct {
	Classifier Classifier
	// Extended adds a Detail to every ColumnStats.
	Extended bool
}

// NewCalculator returns a Calculator using c for classification.
func NewCalculator(c Classifier) Calculator { return Calculator{Classifier: c} }

// Stats classifies header and computes its summary statistics.
func (c Calculator) Stats(t *table.Table, header string) ColumnStats {
	sample := c.Classifier.Sample(t, header)
	cs := ColumnStats{
		Header:  header,
		Kind:    c.Classifier.kindOf(sample),
		Sample:  sample,
		Average: Undefined(),
		Max:     Undefined(),
		Min:     Undefined(),
	}
	if t == nil || !t.Has(header) {
		return cs
	}
	var values []float64
	if cs.Kind == Numeric {
		values = numericStats(t, header, &cs)
	} else {
		textStats(t, header, &cs)
	}
	if c.Extended {
		cs.Detail = detail(t, header, cs.Kind, values)
	}
	return cs
}

func numericStats(t *table.Table, header string, cs *ColumnStats) []float64 {
	values, rejected := NumericValues(t, header)
	cs.Count = len(values)
	cs.Rejected = rejected
	// stats returns ErrEmptyInput for an empty population; that is the
	// undefined case and leaves the measures unset.
	cs.Average = mean(values)
	if hi, err := stats.Max(values); err == nil {
		cs.Max = Defined(hi)
	}
	if lo, err := stats.Min(values); err == nil {
		cs.Min = Defined(lo)
	}
	return values
}

func textStats(t *table.Table, header string, cs *ColumnStats) {
	seen := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		cell := t.Cell(i, header)
		if cell.IsEmpty() {
			continue
		}
		cs.Count++
		seen[cell.String()] = struct{}{}
	}
	cs.Unique = len(seen)
}

// mean is the arithmetic mean of finite values. When the float sum
// overflows it is recomputed exactly with decimals, since the mean of
// finite values is itself finite.
func mean(values []float64) Measure {
	m, err := stats.Mean(values)
	if err != nil {
		return Undefined()
	}
	if math.IsInf(m, 0) || math.IsNaN(m) {
		sum := decimal.Zero
		for _, v := range values {
			sum = sum.Add(decimal.NewFromFloat(v))
		}
		m = sum.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
	}
	return Defined(m)
}

func detail(t *table.Table, header string, kind Kind, values []float64) *Detail {
	d := &Detail{}
	for i := 0; i < t.Len(); i++ {
		if t.Cell(i, header).IsEmpty() {
			d.Nulls++
		}
	}
	if rows := t.Len(); rows > 0 {
		d.Completeness = Defined(float64(rows-d.Nulls) / float64(rows))
	}
	if kind == Numeric {
		d.Numeric = numericDetail(values)
	} else {
		d.Text = textDetail(t, header)
	}
	return d
}

func numericDetail(values []float64) *NumericDetail {
	nd := &NumericDetail{}
	if len(values) == 0 {
		return nd
	}
	if v, err := stats.Median(values); err == nil {
		nd.Median = Defined(v)
	}
	// Mode is empty when every value is equally frequent; ties resolve to
	// the smallest value.
	if modes, err := stats.Mode(values); err == nil && len(modes) > 0 {
		nd.Mode = Defined(modes[0])
	}
	if len(values) > 1 {
		if v, err := stats.SampleVariance(values); err == nil {
			nd.Variance = Defined(v)
		}
		if v, err := stats.StandardDeviationSample(values); err == nil {
			nd.StdDev = Defined(v)
		}
	}
	if len(values) > 2 {
		nd.Skewness = Defined(stat.Skew(values, nil))
	}
	if len(values) > 3 {
		nd.Kurtosis = Defined(stat.ExKurtosis(values, nil))
	}

	q, err := stats.Quartile(values)
	if err != nil {
		return nd
	}
	nd.Q1, nd.Q3 = Defined(q.Q1), Defined(q.Q3)
	if !nd.Q1.IsDefined() || !nd.Q3.IsDefined() {
		return nd
	}
	iqr := q.Q3 - q.Q1
	lo, hi := q.Q1-1.5*iqr, q.Q3+1.5*iqr
	for _, v := range values {
		if v < lo || v > hi {
			nd.OutlierCount++
			if len(nd.Outliers) < MaxOutlierSamples {
				nd.Outliers = append(nd.Outliers, v)
			}
		}
	}
	return nd
}

func textDetail(t *table.Table, header string) *TextDetail {
	td := &TextDetail{TopValues: []ValueCount{}}
	counts := make(map[string]int)
	var order []string
	total, nonEmpty := 0, 0
	for i := 0; i < t.Len(); i++ {
		cell := t.Cell(i, header)
		if cell.IsEmpty() {
			continue
		}
		s := cell.String()
		n := utf8.RuneCountInString(s)
		if nonEmpty == 0 || n < td.MinLength {
			td.MinLength = n
		}
		if n > td.MaxLength {
			td.MaxLength = n
		}
		total += n
		nonEmpty++
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}
	if nonEmpty == 0 {
		return td
	}
	td.AvgLength = Defined(Round2(float64(total) / float64(nonEmpty)))

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > DefaultTopValues {
		order = order[:DefaultTopValues]
	}
	for _, s := range order {
		td.TopValues = append(td.TopValues, ValueCount{Value: s, Count: counts[s]})
	}
	return td
}

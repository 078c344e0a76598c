package analysis

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

// Options controls whole-table profiling.
type Options struct {
	Classifier Classifier
	// SampleRows is how many leading rows to copy into the report; < 0
	// disables samples, 0 means 5.
	SampleRows int
	// Workers bounds concurrent column computations; <= 0 means GOMAXPROCS.
	Workers int
	// Extended adds per-column Detail and pairwise correlations of the
	// numeric columns.
	Extended bool
}

// MaxReportCorrelations bounds the correlation pairs listed in a Report.
const MaxReportCorrelations = 10

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		Classifier: DefaultClassifier(),
		SampleRows: 5,
	}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Columns  []ColumnStats `json:"columns"`
	Samples  [][]string    `json:"samples,omitempty"`
	Headers  []string      `json:"headers"`
	Warnings []string      `json:"warnings,omitempty"`
	// Correlations lists the strongest Pearson pairs when profiling with
	// Options.Extended.
	Correlations []Correlation `json:"correlations,omitempty"`
}

// Profile classifies every column and computes its statistics. Columns are
// independent, so they are computed concurrently; the report keeps header
// order.
func Profile(ctx context.Context, t *table.Table, opt Options) (*Report, error) {
	rep := &Report{ID: uuid.NewString(), Name: t.Source(), Rows: t.Len(), Headers: t.Headers()}
	calc := NewCalculator(opt.Classifier)
	calc.Extended = opt.Extended

	cols := make([]ColumnStats, len(rep.Headers))
	g, gctx := errgroup.WithContext(ctx)
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, h := range rep.Headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cols[i] = calc.Stats(t, h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", t.Source(), err)
	}
	rep.Columns = cols

	for _, c := range cols {
		if c.Kind == Numeric && c.Rejected > c.Count {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"column %s sampled as numeric but %d of %d values are not numbers",
				safeName(c.Header), c.Rejected, c.Rejected+c.Count))
		}
	}

	if opt.Extended {
		numeric := opt.Classifier.NumericHeaders(t)
		rep.Correlations = Correlate(t, numeric, Pearson).Strongest(MaxReportCorrelations)
	}

	sampleRows := opt.SampleRows
	if sampleRows == 0 {
		sampleRows = 5
	}
	if sampleRows > 0 {
		rep.Samples = t.Strings(sampleRows)
	}
	return rep, nil
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (count %d)", safeName(c.Header), c.Kind, c.Count))
		switch c.Kind {
		case Numeric:
			b.WriteString(fmt.Sprintf("; avg %s, min %s, max %s",
				c.Average.Format('f', 2), c.Min.Format('g', -1), c.Max.Format('g', -1)))
			if c.Rejected > 0 {
				b.WriteString(fmt.Sprintf("; %d non-numeric skipped", c.Rejected))
			}
		default:
			b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
		}
		b.WriteString("\n")
		if c.Detail != nil {
			writeDetail(&b, c.Detail)
		}
	}

	if len(r.Correlations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Correlations {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%s (n=%d)\n", safeName(p.A), safeName(p.B), p.R.Format('f', 3), p.N))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		writeMarkdownTable(&b, r.Headers, r.Samples)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeDetail(b *strings.Builder, d *Detail) {
	b.WriteString(fmt.Sprintf("  - missing %d, complete %s", d.Nulls, d.Completeness.Format('f', 3)))
	if n := d.Numeric; n != nil {
		b.WriteString(fmt.Sprintf("; median %s, mode %s, std %s, var %s, q1 %s, q3 %s, skew %s, kurt %s; outliers %d",
			n.Median.Format('g', 6), n.Mode.Format('g', 6), n.StdDev.Format('g', 6), n.Variance.Format('g', 6),
			n.Q1.Format('g', 6), n.Q3.Format('g', 6), n.Skewness.Format('f', 3), n.Kurtosis.Format('f', 3), n.OutlierCount))
	}
	if x := d.Text; x != nil {
		b.WriteString(fmt.Sprintf("; length %d..%d (avg %s)", x.MinLength, x.MaxLength, x.AvgLength.Format('f', 2)))
		if len(x.TopValues) > 0 {
			b.WriteString("; top: ")
			for i, kv := range x.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
	}
	b.WriteString("\n")
}

// MarkdownTable renders headers and records as a pipe table.
func MarkdownTable(headers []string, records [][]string) string {
	var b strings.Builder
	writeMarkdownTable(&b, headers, records)
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, headers []string, records [][]string) {
	b.WriteString("| ")
	for i, h := range headers {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n| ")
	for i := range headers {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range records {
		b.WriteString("| ")
		for i := range headers {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if rs := []rune(val); len(rs) > 80 {
				val = string(rs[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

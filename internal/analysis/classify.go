package analysis

import (
	"github.com/rrbz/excel-insight-creator/internal/table"
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	Textual Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// MarshalText lets Kind appear as "numeric"/"text" in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

const (
	// DefaultSampleSize is the prefix of rows inspected for type inference.
	DefaultSampleSize = 100
	// DefaultNumericThreshold is the fraction of sampled values that must be
	// numeric, exclusive, for a column to classify as Numeric.
	DefaultNumericThreshold = 0.7
)

// Classifier infers column kinds from a bounded prefix of rows.
type Classifier struct {
	// SampleSize bounds the rows inspected; <= 0 means DefaultSampleSize.
	SampleSize int
	// Threshold is the exclusive numeric fraction; outside (0,1) means
	// DefaultNumericThreshold.
	Threshold float64
}

// DefaultClassifier returns a Classifier with the standard 100-row window
// and 0.7 threshold.
func DefaultClassifier() Classifier {
	return Classifier{SampleSize: DefaultSampleSize, Threshold: DefaultNumericThreshold}
}

func (c Classifier) sampleSize() int {
	if c.SampleSize <= 0 {
		return DefaultSampleSize
	}
	return c.SampleSize
}

func (c Classifier) threshold() float64 {
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return DefaultNumericThreshold
	}
	return c.Threshold
}

// Sample holds the counts taken from a column's sample window.
type Sample struct {
	NonEmpty int `json:"non_empty"`
	Numeric  int `json:"numeric"`
}

// Sample counts non-empty and numeric-coercible cells of header within the
// sample window. An unknown header yields a zero Sample.
func (c Classifier) Sample(t *table.Table, header string) Sample {
	var s Sample
	if t == nil || !t.Has(header) {
		return s
	}
	n := t.Len()
	if lim := c.sampleSize(); n > lim {
		n = lim
	}
	for i := 0; i < n; i++ {
		cell := t.Cell(i, header)
		if cell.IsEmpty() {
			continue
		}
		s.NonEmpty++
		if _, ok := cell.Float(); ok {
			s.Numeric++
		}
	}
	return s
}

// Classify returns Numeric when the numeric share of the non-empty sample is
// strictly greater than the threshold. An empty sample is Textual.
func (c Classifier) Classify(t *table.Table, header string) Kind {
	return c.kindOf(c.Sample(t, header))
}

func (c Classifier) kindOf(s Sample) Kind {
	if s.NonEmpty == 0 {
		return Textual
	}
	if float64(s.Numeric)/float64(s.NonEmpty) > c.threshold() {
		return Numeric
	}
	return Textual
}

// NumericHeaders lists, in header order, the columns that classify as Numeric.
func (c Classifier) NumericHeaders(t *table.Table) []string {
	out := []string{}
	if t == nil {
		return out
	}
	for _, h := range t.Headers() {
		if c.Classify(t, h) == Numeric {
			out = append(out, h)
		}
	}
	return out
}

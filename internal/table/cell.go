package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the variant held by a Cell.
type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindNumber
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Cell is a single (row, header) value: a Number, a Text or Empty.
// The zero value is Empty.
type Cell struct {
	kind CellKind
	num  float64
	text string
}

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Text returns a textual cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Kind reports which variant the cell holds.
func (c Cell) Kind() CellKind { return c.kind }

// IsEmpty is true for Empty cells and for Text cells holding "".
func (c Cell) IsEmpty() bool {
	return c.kind == KindEmpty || (c.kind == KindText && c.text == "")
}

// String coerces the cell to its display form. Numbers use the shortest
// decimal representation that round-trips (17 -> "17", 2.5 -> "2.5").
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// Float coerces the cell to a finite number. Text is trimmed before parsing;
// NaN and infinities are never accepted.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return 0, false
		}
		return c.num, true
	case KindText:
		return ParseNumber(c.text)
	default:
		return 0, false
	}
}

// ParseNumber parses s as a finite float64. Blank input is not a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Infer builds a cell from raw decoded text: blank -> Empty, numeric -> Number,
// anything else -> Text (untrimmed).
func Infer(raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return Empty()
	}
	if f, ok := ParseNumber(raw); ok {
		return Number(f)
	}
	return Text(raw)
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and Empty as "".
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == KindNumber {
		if f, ok := c.Float(); ok {
			return json.Marshal(f)
		}
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

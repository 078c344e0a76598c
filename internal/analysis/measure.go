package analysis

import (
	"encoding/json"
	"math"
	"strconv"
)

// Measure is a numeric aggregate that may be undefined, e.g. the average of
// zero values. The zero value is undefined; it never reads as 0.
type Measure struct {
	value   float64
	defined bool
}

// Defined wraps a computed value. NaN and infinities are undefined.
func Defined(v float64) Measure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measure{}
	}
	return Measure{value: v, defined: true}
}

// Undefined is the explicit "no value" measure.
func Undefined() Measure { return Measure{} }

// Get returns the value and whether it is defined.
func (m Measure) Get() (float64, bool) { return m.value, m.defined }

// IsDefined reports whether the measure carries a value.
func (m Measure) IsDefined() bool { return m.defined }

// Format renders the value with the given strconv format, or "n/a".
func (m Measure) Format(fmtByte byte, prec int) string {
	if !m.defined {
		return "n/a"
	}
	return strconv.FormatFloat(m.value, fmtByte, prec, 64)
}

func (m Measure) String() string { return m.Format('g', -1) }

// MarshalJSON writes undefined measures as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// Package types provides core data types for fitgrid.
package types

import (
	"fmt"
	"time"
)

// Kind identifies which scalar variant a Value holds.
type Kind uint8

const (
	// KindMissing marks a cell for which the originating frame carried no
	// value. It is the zero Kind, so a zero Value is the missing marker.
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged scalar decoded from one FIT field. Fields of a frame
// carry heterogeneous types (counters, fixed-point measurements, labels,
// timestamps), so cells store an explicit variant instead of an untyped
// interface value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Missing is the explicit marker rendered for a cell whose column is absent
// from a given row. It is never an implicit zero or empty string.
var Missing = Value{}

// IntValue returns a Value holding an integer.
func IntValue(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// FloatValue returns a Value holding a float.
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// StringValue returns a Value holding a string.
func StringValue(v string) Value {
	return Value{kind: KindString, s: v}
}

// TimeValue returns a Value holding a timestamp.
func TimeValue(v time.Time) Value {
	return Value{kind: KindTime, t: v}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the value is the missing marker.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Int returns the integer variant. It returns 0 for any other kind.
func (v Value) Int() int64 {
	return v.i
}

// Float returns the value as a float64. Integer values are converted; any
// non-numeric kind returns 0.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// IsNumeric reports whether the value holds an integer or a float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Str returns the string variant. It returns "" for any other kind.
func (v Value) Str() string {
	return v.s
}

// Time returns the timestamp variant. It returns the zero time for any
// other kind.
func (v Value) Time() time.Time {
	return v.t
}

// Any returns the underlying Go value: int64, float64, string, time.Time,
// or nil for the missing marker. Used when handing cells to drivers and
// encoders that expect interface values.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values hold the same kind and the same scalar.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// String renders the value for display. The missing marker renders as "-".
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return "-"
	}
}

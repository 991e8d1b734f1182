// Package accum provides the per-column sub-accumulators of the statistics
// engine: typed sums, typed min/max with sort-order tracking, online moments,
// the numeric order-statistics buffer and the frequency multiset.
//
// Every accumulator supports a pure two-argument merge so partial results
// built from disjoint chunks of a file combine into the same answer in any
// order.
package accum

import (
	"math"
	"math/bits"
	"strconv"

	"github.com/paveg/tabstat/internal/fieldtype"
)

const (
	// OverflowSentinel is rendered when an integer sum exceeds math.MaxInt64.
	OverflowSentinel = "*OVERFLOW*"
	// UnderflowSentinel is rendered when an integer sum is below math.MinInt64.
	UnderflowSentinel = "*UNDERFLOW*"
)

// Saturation describes whether an integer total fits in an int64.
type Saturation int8

const (
	// InRange means the total is exact.
	InRange Saturation = iota
	// Overflow means the total is above math.MaxInt64.
	Overflow
	// Underflow means the total is below math.MinInt64.
	Underflow
)

// int128 is a two's complement 128-bit integer. Summing at most 2^63 int64
// values never wraps it, which keeps integer sums exact and associative.
type int128 struct {
	hi int64
	lo uint64
}

func (x int128) addInt64(v int64) int128 {
	lo, carry := bits.Add64(x.lo, uint64(v), 0)
	return int128{hi: x.hi + (v >> 63) + int64(carry), lo: lo} //nolint:gosec // carry is 0 or 1
}

func (x int128) add(y int128) int128 {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	return int128{hi: x.hi + y.hi + int64(carry), lo: lo} //nolint:gosec // carry is 0 or 1
}

func (x int128) int64() (int64, Saturation) {
	switch {
	case x.hi == 0 && x.lo <= math.MaxInt64:
		return int64(x.lo), InRange
	case x.hi == -1 && x.lo > math.MaxInt64:
		return int64(x.lo), InRange //nolint:gosec // high bit set means negative in range
	case x.hi < 0:
		return math.MinInt64, Underflow
	default:
		return math.MaxInt64, Overflow
	}
}

func (x int128) float64() float64 {
	if v, sat := x.int64(); sat == InRange {
		return float64(v)
	}
	return float64(x.hi)*(1<<64) + float64(x.lo)
}

// Sum is a running typed sum plus the total byte length of non-null values.
// The zero value is ready to use.
type Sum struct {
	integer int128
	float   float64
	// isFloat is set once a float has been summed; integer history has been
	// folded into float from then on.
	isFloat bool
	length  uint64
}

// Add incorporates a sample under the column's post-merge type t. Null,
// String, Date and DateTime are no-ops for the numeric total.
func (s *Sum) Add(t fieldtype.FieldType, sample fieldtype.Sample) {
	switch t {
	case fieldtype.Integer:
		s.integer = s.integer.addInt64(sample.Int)
	case fieldtype.Float:
		s.upgrade()
		s.float += sample.Float
	default:
	}
}

// AddLength adds a value's byte length to the length total, saturating at
// math.MaxUint64.
func (s *Sum) AddLength(n int) {
	s.length = addSaturating(s.length, uint64(n)) //nolint:gosec // lengths are non-negative
}

func (s *Sum) upgrade() {
	if s.isFloat {
		return
	}
	s.float = s.integer.float64()
	s.integer = int128{}
	s.isFloat = true
}

// MergeSum combines two sums.
func MergeSum(a, b Sum) Sum {
	out := Sum{length: addSaturating(a.length, b.length)}
	if !a.isFloat && !b.isFloat {
		out.integer = a.integer.add(b.integer)
		return out
	}
	a.upgrade()
	b.upgrade()
	out.isFloat = true
	out.float = a.float + b.float
	return out
}

// Int returns the integer total and whether it fits in an int64.
func (s Sum) Int() (int64, Saturation) {
	if s.isFloat {
		return int64(s.float), InRange
	}
	return s.integer.int64()
}

// Float returns the total as a float, including integer history.
func (s Sum) Float() float64 {
	if s.isFloat {
		return s.float
	}
	return s.integer.float64()
}

// Length returns the total byte length of the non-null values seen.
func (s Sum) Length() uint64 { return s.length }

// IsFloat reports whether the sum has been upgraded to float.
func (s Sum) IsFloat() bool { return s.isFloat }

// Show renders the sum for type t: the integer total or a saturation
// sentinel for Integer, the float total for Float, the length total for
// String. formatFloat renders floats under the caller's rounding policy.
func (s Sum) Show(t fieldtype.FieldType, formatFloat func(float64) string) string {
	switch t {
	case fieldtype.Integer:
		v, sat := s.Int()
		switch sat {
		case Overflow:
			return OverflowSentinel
		case Underflow:
			return UnderflowSentinel
		default:
			return formatInt(v)
		}
	case fieldtype.Float:
		return formatFloat(s.Float())
	case fieldtype.String:
		return formatUint(s.length)
	default:
		return ""
	}
}

func addSaturating(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

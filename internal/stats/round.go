package stats

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Rounder renders floats with a fixed number of decimal places using
// round-half-to-even. Trailing zeros are dropped.
type Rounder int

// Format renders x, or the empty string for NaN and infinities.
func (r Rounder) Format(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	if r >= NoRounding {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return decimal.NewFromFloat(x).RoundBank(int32(r)).String() //nolint:gosec // bounded by NoRounding
}

// FormatOK renders x when ok is set.
func (r Rounder) FormatOK(x float64, ok bool) string {
	if !ok {
		return ""
	}
	return r.Format(x)
}

package fieldtype

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

// MillisPerDay is the number of milliseconds in a calendar day.
const MillisPerDay int64 = 24 * 60 * 60 * 1000

// Options controls how a single value is classified.
type Options struct {
	// InferDates enables date and datetime detection.
	InferDates bool
	// PreferDMY resolves ambiguous dates such as 03/04/2024 as day/month.
	PreferDMY bool
}

// Sample is a classified value. The numeric fields are only meaningful for
// the types that set them, so callers never parse a value twice.
type Sample struct {
	Type FieldType
	// Int is set for Integer samples.
	Int int64
	// Float is set for Integer and Float samples.
	Float float64
	// Millis is the UTC epoch-millisecond timestamp of Date and DateTime samples.
	Millis int64
}

// Classify infers the type of a single value. current is the column's
// running type; once it is String no parsing is attempted.
func Classify(value string, current FieldType, opts Options) Sample {
	if value == "" {
		return Sample{Type: Null}
	}
	if current == String {
		return Sample{Type: String}
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		// leading zeros mark identifiers such as ZIP codes
		if i == 0 || value[0] != '0' {
			return Sample{Type: Integer, Int: i, Float: float64(i)}
		}
		return Sample{Type: String}
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Sample{Type: String}
		}
		return Sample{Type: Float, Float: f}
	}

	if opts.InferDates && utf8.ValidString(value) {
		if ms, ok := parseDate(value, opts.PreferDMY); ok {
			if ms%MillisPerDay == 0 {
				return Sample{Type: Date, Millis: ms}
			}
			return Sample{Type: DateTime, Millis: ms}
		}
	}

	return Sample{Type: String}
}

func parseDate(value string, preferDMY bool) (int64, bool) {
	t, err := dateparse.ParseIn(value, time.UTC, dateparse.PreferMonthFirst(!preferDMY))
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// Precision returns the number of fractional digits in a decimal literal,
// ignoring any exponent.
func Precision(value string) int {
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		return 0
	}
	frac := value[dot+1:]
	if e := strings.IndexAny(frac, "eE"); e >= 0 {
		frac = frac[:e]
	}
	return len(frac)
}

// FormatMillis renders an epoch-millisecond timestamp for t, which must be
// Date or DateTime.
func FormatMillis(ms int64, t FieldType) string {
	ts := time.UnixMilli(ms).UTC()
	if t == Date {
		return ts.Format(time.DateOnly)
	}
	return ts.Format(time.RFC3339Nano)
}

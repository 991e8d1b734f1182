// Package stats implements the per-column statistics accumulator. A Column
// classifies every value it is fed, widens its inferred type and routes the
// value into the sub-accumulators enabled by its Options. Columns built from
// disjoint chunks of the same column merge into the result of a single pass.
package stats

import (
	"fmt"
	"slices"
	"strings"
)

// Family is a bit set of statistic families.
type Family uint16

const (
	// FamilySum enables the typed sum and the length total.
	FamilySum Family = 1 << iota
	// FamilyRange enables min, max, range, sort order and length extremes.
	FamilyRange
	// FamilyMoments enables mean, variance and the related moment statistics.
	FamilyMoments
	// FamilyCardinality enables distinct counting.
	FamilyCardinality
	// FamilyMedian enables the median.
	FamilyMedian
	// FamilyMAD enables the median absolute deviation.
	FamilyMAD
	// FamilyQuartiles enables quartiles, fences, IQR and skewness.
	FamilyQuartiles
	// FamilyMode enables mode and antimode.
	FamilyMode
	// FamilyPercentiles enables the custom percentile list.
	FamilyPercentiles
)

const (
	// StreamingFamilies use constant memory per column.
	StreamingFamilies = FamilySum | FamilyRange | FamilyMoments
	// AllFamilies is every statistic family.
	AllFamilies = StreamingFamilies | FamilyCardinality | FamilyMedian | FamilyMAD |
		FamilyQuartiles | FamilyMode | FamilyPercentiles

	orderFamilies = FamilyMedian | FamilyMAD | FamilyQuartiles | FamilyPercentiles
	freqFamilies  = FamilyCardinality | FamilyMode
)

// Has reports whether every family in x is enabled.
func (f Family) Has(x Family) bool { return f&x == x }

// NonStreaming reports whether any enabled family buffers values.
func (f Family) NonStreaming() bool { return f&(orderFamilies|freqFamilies) != 0 }

// BuffersValues reports whether f keeps every numeric value.
func (f Family) BuffersValues() bool { return f&orderFamilies != 0 }

// CountsValues reports whether f keeps a frequency table.
func (f Family) CountsValues() bool { return f&freqFamilies != 0 }

// NoRounding disables rounding of numeric outputs.
const NoRounding = 9999

// DefaultPercentiles is the percentile list used when none is configured.
var DefaultPercentiles = []float64{5, 10, 40, 60, 90, 95}

// DefaultBooleanPatterns is the true:false pattern list used for boolean
// inference when none is configured.
const DefaultBooleanPatterns = "1:0,t*:f*,y*:n*"

// Options fixes what a Column computes for its whole lifetime.
type Options struct {
	Families Family
	// TypesOnly computes only the inferred type and null count.
	TypesOnly bool
	// IncludeNulls counts nulls in the mean and variance denominators.
	IncludeNulls bool

	InferDates bool
	PreferDMY  bool
	// DatesWhitelist limits date inference to columns whose name contains
	// one of these substrings, compared case-insensitively. Empty or "all"
	// allows every column.
	DatesWhitelist []string

	InferBoolean    bool
	BooleanPatterns []BoolPattern

	Percentiles []float64
	// Round is the number of decimal places kept in numeric outputs, or
	// NoRounding.
	Round int
}

// DefaultOptions returns the streaming statistics with four decimal places.
func DefaultOptions() Options {
	patterns, _ := ParseBoolPatterns(DefaultBooleanPatterns)
	return Options{
		Families:        StreamingFamilies,
		BooleanPatterns: patterns,
		Percentiles:     slices.Clone(DefaultPercentiles),
		Round:           4,
	}
}

// Everything returns options with every family and date inference enabled.
func Everything() Options {
	opts := DefaultOptions()
	opts.Families = AllFamilies
	opts.InferDates = true
	return opts
}

// Normalize resolves option interactions: types-only mode drops every
// family, and boolean inference needs cardinality.
func (o Options) Normalize() Options {
	if o.TypesOnly {
		o.Families = 0
	}
	if o.InferBoolean {
		o.Families |= FamilyCardinality
		if len(o.BooleanPatterns) == 0 {
			o.BooleanPatterns, _ = ParseBoolPatterns(DefaultBooleanPatterns)
		}
	}
	if o.Families.Has(FamilyPercentiles) && len(o.Percentiles) == 0 {
		o.Percentiles = slices.Clone(DefaultPercentiles)
	}
	return o
}

// Validate checks the options for values that cannot be honored.
func (o Options) Validate() error {
	if o.Round < 0 {
		return fmt.Errorf("round must be non-negative, got %d", o.Round)
	}
	for _, p := range o.Percentiles {
		if p < 0 || p > 100 {
			return fmt.Errorf("percentile must be between 0 and 100, got %v", p)
		}
	}
	return nil
}

// InfersDates reports whether date inference applies to the named column.
func (o Options) InfersDates(name string) bool {
	if !o.InferDates {
		return false
	}
	if len(o.DatesWhitelist) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, w := range o.DatesWhitelist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "all" || (w != "" && strings.Contains(lower, w)) {
			return true
		}
	}
	return false
}

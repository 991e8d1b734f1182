package accum_test

import (
	"strconv"

	"github.com/paveg/tabstat/internal/fieldtype"
)

var dateOpts = fieldtype.Options{InferDates: true}

func format(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// typedSamples classifies values in order, returning each sample with the
// running type after it was merged.
func typedSamples(values []string, opts fieldtype.Options) ([]fieldtype.Sample, []fieldtype.FieldType) {
	samples := make([]fieldtype.Sample, len(values))
	types := make([]fieldtype.FieldType, len(values))
	t := fieldtype.Null
	for i, v := range values {
		s := fieldtype.Classify(v, t, opts)
		t = fieldtype.Merge(t, s.Type)
		samples[i] = s
		types[i] = t
	}
	return samples, types
}

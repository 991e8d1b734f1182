package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/paveg/tabstat/internal/accum"
	"github.com/paveg/tabstat/internal/fieldtype"
)

const (
	// AllUniqueSentinel is the antimode of a column whose values are all
	// distinct.
	AllUniqueSentinel = "*ALL"
	// PreviewPrefix marks a truncated antimode list.
	PreviewPrefix = "*PREVIEW: "

	antimodePreviewValues = 10
	antimodePreviewBytes  = 100
)

// Headers returns the summary field names produced for opts, in output
// order.
func Headers(opts Options) []string {
	h := []string{"field", "type"}
	if opts.TypesOnly {
		return append(h, "nullcount")
	}
	f := opts.Families

	h = append(h, "is_ascii")
	if f.Has(FamilySum) {
		h = append(h, "sum")
	}
	if f.Has(FamilyRange) {
		h = append(h, "min", "max", "range", "sort_order", "sortiness", "min_length", "max_length")
	}
	if f.Has(FamilySum) {
		h = append(h, "sum_length")
	}
	if f.Has(FamilyMoments) {
		h = append(h, "avg_length", "stddev_length", "variance_length", "cv_length",
			"mean", "sem", "geometric_mean", "harmonic_mean", "stddev", "variance", "cv")
	}
	h = append(h, "nullcount", "max_precision", "sparsity")
	if f.Has(FamilyMAD) {
		h = append(h, "mad")
	}
	if f.Has(FamilyQuartiles) {
		h = append(h, "lower_outer_fence", "lower_inner_fence", "q1", "q2_median", "q3", "iqr",
			"upper_inner_fence", "upper_outer_fence", "skewness")
	}
	if f.Has(FamilyMedian) {
		h = append(h, "median")
	}
	if f.Has(FamilyCardinality) {
		h = append(h, "cardinality", "uniqueness_ratio")
	}
	if f.Has(FamilyMode) {
		h = append(h, "mode", "mode_count", "mode_occurrences",
			"antimode", "antimode_count", "antimode_occurrences")
	}
	if f.Has(FamilyPercentiles) {
		h = append(h, "percentiles")
	}
	return h
}

// Record renders the column's summary as values aligned with Headers for
// the Column's options. Statistics that do not apply to the inferred type
// are empty.
func (c *Column) Record() []string {
	r := &recorder{c: c, round: Rounder(c.opts.Round)}
	return r.record()
}

// Summary renders the column as an ordered list of name/value pairs.
func (c *Column) Summary() []Field {
	headers := Headers(*c.opts)
	values := c.Record()
	out := make([]Field, len(headers))
	for i, h := range headers {
		out[i] = Field{Name: h, Value: values[i]}
	}
	return out
}

// Field is one named summary value.
type Field struct {
	Name  string
	Value string
}

type recorder struct {
	c     *Column
	round Rounder
	out   []string

	sorted    []float64
	sortedSet bool
}

func (r *recorder) add(vals ...string) { r.out = append(r.out, vals...) }

func (r *recorder) blank(n int) {
	for range n {
		r.out = append(r.out, "")
	}
}

func (r *recorder) sortedValues() []float64 {
	if !r.sortedSet {
		r.sorted = r.c.values.Sorted()
		r.sortedSet = true
	}
	return r.sorted
}

// scalar renders a numeric projection for the column type: timestamps for
// dates, rounded numbers otherwise.
func (r *recorder) scalar(x float64, ok bool) string {
	if !ok {
		return ""
	}
	if t := r.c.typ; t.IsTemporal() {
		return fieldtype.FormatMillis(int64(math.Round(x)), t)
	}
	return r.round.Format(x)
}

// spread renders a distance, in days for dates.
func (r *recorder) spread(x float64, ok bool) string {
	if !ok {
		return ""
	}
	if r.c.typ.IsTemporal() {
		x /= float64(fieldtype.MillisPerDay)
	}
	return r.round.Format(x)
}

func (r *recorder) record() []string {
	c := r.c
	opts := c.opts
	t := c.typ
	isString := t == fieldtype.String
	numeric := t.IsNumeric() || t.IsTemporal()

	r.add(c.name, c.Label())
	if opts.TypesOnly {
		r.add(formatUint(c.nulls))
		return r.out
	}
	f := opts.Families

	if isString {
		r.add(strconv.FormatBool(c.ascii))
	} else {
		r.blank(1)
	}

	if f.Has(FamilySum) {
		r.add(c.sum.Show(t, r.round.Format))
	}

	if f.Has(FamilyRange) {
		lo, hi, rng := c.minmax.Show(t, r.round.Format)
		r.add(lo, hi, rng)
		if t == fieldtype.Null {
			r.blank(2)
		} else {
			r.add(c.minmax.SortOrder(t).String(), r.round.Format(c.minmax.Sortiness(t)))
		}
		if shortest, longest, ok := c.minmax.Lengths(); ok && isString {
			r.add(strconv.Itoa(shortest), strconv.Itoa(longest))
		} else {
			r.blank(2)
		}
	}

	if f.Has(FamilySum) {
		if isString {
			r.add(formatUint(c.sum.Length()))
		} else {
			r.blank(1)
		}
	}

	if f.Has(FamilyMoments) {
		r.lengthMoments(isString)
		r.valueMoments(t)
	}

	r.add(formatUint(c.nulls))
	if t == fieldtype.Float {
		r.add(strconv.Itoa(c.precision))
	} else {
		r.blank(1)
	}
	if c.rows > 0 {
		r.add(r.round.Format(float64(c.nulls) / float64(c.rows)))
	} else {
		r.blank(1)
	}

	r.orderStats(f, numeric)

	if f.Has(FamilyCardinality) {
		card, _ := c.Cardinality()
		r.add(formatUint(card))
		if c.rows > 0 {
			r.add(r.round.Format(float64(card) / float64(c.rows)))
		} else {
			r.blank(1)
		}
	}

	if f.Has(FamilyMode) {
		r.modes()
	}

	if f.Has(FamilyPercentiles) {
		if numeric {
			r.add(r.percentiles())
		} else {
			r.blank(1)
		}
	}
	return r.out
}

func (r *recorder) lengthMoments(isString bool) {
	if !isString {
		r.blank(4)
		return
	}
	l := r.c.lengths
	r.add(r.round.FormatOK(l.Mean()), r.round.FormatOK(l.StdDev()), r.round.FormatOK(l.Variance()), r.round.FormatOK(l.CV()))
}

func (r *recorder) valueMoments(t fieldtype.FieldType) {
	m := r.c.moments
	switch {
	case t.IsNumeric():
		r.add(r.round.FormatOK(m.Mean()), r.round.FormatOK(m.SEM()),
			r.round.FormatOK(m.GeometricMean()), r.round.FormatOK(m.HarmonicMean()),
			r.round.FormatOK(m.StdDev()), r.round.FormatOK(m.Variance()), r.round.FormatOK(m.CV()))
	case t.IsTemporal():
		sd, sdOK := m.StdDev()
		variance, varOK := m.Variance()
		day := float64(fieldtype.MillisPerDay)
		r.add(r.scalar(m.Mean()), r.spread(m.SEM()), "", "",
			r.spread(sd, sdOK), r.round.FormatOK(variance/(day*day), varOK), "")
	default:
		r.blank(7)
	}
}

func (r *recorder) orderStats(f Family, numeric bool) {
	if !numeric {
		if f.Has(FamilyMAD) {
			r.blank(1)
		}
		if f.Has(FamilyQuartiles) {
			r.blank(9)
		}
		if f.Has(FamilyMedian) {
			r.blank(1)
		}
		return
	}
	// streaming-only columns carry no order statistics
	if r.c.values == nil {
		return
	}

	sorted := r.sortedValues()
	var (
		q      accum.Quartiles
		qOK    bool
		median float64
		medOK  bool
	)
	if f.Has(FamilyQuartiles) {
		q, qOK = accum.ComputeQuartiles(sorted)
	}
	if qOK {
		median, medOK = q.Q2, true
	} else if f.Has(FamilyMedian) || f.Has(FamilyMAD) {
		median, medOK = accum.Median(sorted)
	}

	if f.Has(FamilyMAD) {
		if medOK {
			r.add(r.spread(accum.MAD(sorted, median)))
		} else {
			r.blank(1)
		}
	}

	if f.Has(FamilyQuartiles) {
		if qOK {
			lof, uof := q.OuterFences()
			lif, uif := q.InnerFences()
			skew := q.Skewness()
			r.add(r.scalar(lof, true), r.scalar(lif, true),
				r.scalar(q.Q1, true), r.scalar(q.Q2, true), r.scalar(q.Q3, true),
				r.spread(q.IQR(), true),
				r.scalar(uif, true), r.scalar(uof, true),
				r.round.FormatOK(skew, !math.IsNaN(skew)))
		} else {
			r.blank(9)
		}
	}

	if f.Has(FamilyMedian) {
		r.add(r.scalar(median, medOK))
	}
}

func (r *recorder) percentiles() string {
	sorted := r.sortedValues()
	if len(sorted) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.c.opts.Percentiles))
	for _, p := range r.c.opts.Percentiles {
		parts = append(parts, r.scalar(accum.Percentile(sorted, p)))
	}
	return strings.Join(parts, "|")
}

func (r *recorder) modes() {
	c := r.c
	if c.rows == 0 {
		r.blank(6)
		return
	}
	card, _ := c.Cardinality()
	if card == c.rows {
		// every value is unique; nothing to enumerate
		r.add("", "0", "0", AllUniqueSentinel, "0", "1")
		return
	}

	modes := c.freqs.Modes()
	r.add(strings.Join(modes.Values, "|"), strconv.Itoa(len(modes.Values)), formatUint(modes.Occurrences))

	anti := c.freqs.Antimodes()
	r.add(previewAntimodes(anti.Values), strconv.Itoa(len(anti.Values)), formatUint(anti.Occurrences))
}

func previewAntimodes(values []string) string {
	truncated := len(values) > antimodePreviewValues
	if truncated {
		values = values[:antimodePreviewValues]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if len(v) > antimodePreviewBytes {
			v = strings.ToValidUTF8(v[:antimodePreviewBytes], "")
			truncated = true
		}
		parts[i] = v
	}
	joined := strings.Join(parts, "|")
	if truncated {
		return PreviewPrefix + joined
	}
	return joined
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

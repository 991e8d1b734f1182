package accum

import (
	"math"
	"slices"
)

// Quartiles holds the method-3 quartiles of a sorted sample and the values
// derived from them.
type Quartiles struct {
	Q1, Q2, Q3 float64
}

// IQR returns the inter-quartile range.
func (q Quartiles) IQR() float64 { return q.Q3 - q.Q1 }

// InnerFences returns Q1-1.5*IQR and Q3+1.5*IQR.
func (q Quartiles) InnerFences() (lower, upper float64) {
	return q.Q1 - 1.5*q.IQR(), q.Q3 + 1.5*q.IQR()
}

// OuterFences returns Q1-3*IQR and Q3+3*IQR.
func (q Quartiles) OuterFences() (lower, upper float64) {
	return q.Q1 - 3*q.IQR(), q.Q3 + 3*q.IQR()
}

// Skewness returns the quartile skewness ((Q3-Q2)-(Q2-Q1))/IQR. It is NaN
// when the IQR is zero.
func (q Quartiles) Skewness() float64 {
	iqr := q.IQR()
	if iqr == 0 {
		return math.NaN()
	}
	return ((q.Q3 - q.Q2) - (q.Q2 - q.Q1)) / iqr
}

// ComputeQuartiles returns the quartiles of sorted using method 3 (the
// median of each half, splitting odd-sized samples on the middle value).
// Samples with fewer than three values have no quartiles.
func ComputeQuartiles(sorted []float64) (Quartiles, bool) {
	n := len(sorted)
	if n < 3 {
		return Quartiles{}, false
	}
	k, r := n/4, n%4
	d := sorted
	mid := func(i int) float64 { return (d[i] + d[i+1]) / 2 }

	switch r {
	case 0:
		return Quartiles{Q1: mid(k - 1), Q2: mid(2*k - 1), Q3: mid(3*k - 1)}, true
	case 1:
		return Quartiles{Q1: mid(k - 1), Q2: d[2*k], Q3: mid(3 * k)}, true
	case 2:
		return Quartiles{Q1: d[k], Q2: mid(2 * k), Q3: d[3*k+1]}, true
	default:
		return Quartiles{Q1: d[k], Q2: d[2*k+1], Q3: d[3*k+2]}, true
	}
}

// Median returns the median of sorted.
func Median(sorted []float64) (float64, bool) {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN(), false
	case n%2 == 1:
		return sorted[n/2], true
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	}
}

// MAD returns the median absolute deviation of sorted around median.
func MAD(sorted []float64, median float64) (float64, bool) {
	if len(sorted) == 0 {
		return math.NaN(), false
	}
	dev := make([]float64, len(sorted))
	for i, x := range sorted {
		dev[i] = math.Abs(x - median)
	}
	slices.Sort(dev)
	return Median(dev)
}

// Percentile returns the nearest-rank p-th percentile of sorted, with p in
// [0, 100].
func Percentile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 || p < 0 || p > 100 {
		return math.NaN(), false
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	rank = max(rank, 1)
	rank = min(rank, n)
	return sorted[rank-1], true
}

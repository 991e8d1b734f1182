package accum

import "math"

// Moments is a constant-memory accumulator for mean, variance and the
// geometric and harmonic means. Nulls may be counted without a value, which
// widens the population used by the mean and variance as if each null were
// a zero. The zero value is ready to use.
type Moments struct {
	n    uint64
	mean float64
	m2   float64

	nulls uint64

	logSum   float64
	recipSum float64
	// nonPositive is set once a value <= 0 has been seen; the geometric and
	// harmonic means are undefined from then on.
	nonPositive bool
}

// Add incorporates one value using Welford's update.
func (m *Moments) Add(x float64) {
	m.n++
	delta := x - m.mean
	m.mean += delta / float64(m.n)
	m.m2 += delta * (x - m.mean)

	if x <= 0 {
		m.nonPositive = true
		return
	}
	m.logSum += math.Log(x)
	m.recipSum += 1 / x
}

// AddNull counts a null without a value.
func (m *Moments) AddNull() {
	m.nulls++
}

// MergeMoments combines two accumulators with the pairwise update of Chan et
// al. The result matches a single pass over both inputs up to rounding.
func MergeMoments(a, b Moments) Moments {
	out := Moments{
		nulls:       a.nulls + b.nulls,
		logSum:      a.logSum + b.logSum,
		recipSum:    a.recipSum + b.recipSum,
		nonPositive: a.nonPositive || b.nonPositive,
	}
	switch {
	case a.n == 0:
		out.n, out.mean, out.m2 = b.n, b.mean, b.m2
	case b.n == 0:
		out.n, out.mean, out.m2 = a.n, a.mean, a.m2
	default:
		out.n = a.n + b.n
		na, nb, n := float64(a.n), float64(b.n), float64(out.n)
		delta := b.mean - a.mean
		out.mean = a.mean + delta*nb/n
		out.m2 = a.m2 + b.m2 + delta*delta*na*nb/n
	}
	return out
}

// Count returns the population size: values plus counted nulls.
func (m Moments) Count() uint64 { return m.n + m.nulls }

// Values returns the number of values, excluding counted nulls.
func (m Moments) Values() uint64 { return m.n }

// Mean returns the arithmetic mean over the population.
func (m Moments) Mean() (float64, bool) {
	total := m.Count()
	if total == 0 {
		return math.NaN(), false
	}
	if m.nulls == 0 {
		return m.mean, true
	}
	return m.mean * float64(m.n) / float64(total), true
}

// Variance returns the sample variance over the population.
func (m Moments) Variance() (float64, bool) {
	total := m.Count()
	if total < 2 {
		return math.NaN(), false
	}
	ss := m.m2
	if m.nulls > 0 {
		mu, _ := m.Mean()
		d := m.mean - mu
		ss += float64(m.n)*d*d + float64(m.nulls)*mu*mu
	}
	v := ss / float64(total-1)
	if v < 0 {
		v = 0
	}
	return v, true
}

// StdDev returns the sample standard deviation.
func (m Moments) StdDev() (float64, bool) {
	v, ok := m.Variance()
	if !ok {
		return math.NaN(), false
	}
	return math.Sqrt(v), true
}

// SEM returns the standard error of the mean.
func (m Moments) SEM() (float64, bool) {
	sd, ok := m.StdDev()
	if !ok {
		return math.NaN(), false
	}
	return sd / math.Sqrt(float64(m.Count())), true
}

// CV returns the coefficient of variation as a percentage.
func (m Moments) CV() (float64, bool) {
	sd, ok := m.StdDev()
	if !ok {
		return math.NaN(), false
	}
	mean, _ := m.Mean()
	if mean == 0 {
		return math.NaN(), false
	}
	return 100 * sd / mean, true
}

// GeometricMean returns exp(mean(log x)) over the values.
func (m Moments) GeometricMean() (float64, bool) {
	if m.n == 0 || m.nonPositive {
		return math.NaN(), false
	}
	return math.Exp(m.logSum / float64(m.n)), true
}

// HarmonicMean returns n / sum(1/x) over the values.
func (m Moments) HarmonicMean() (float64, bool) {
	if m.n == 0 || m.nonPositive {
		return math.NaN(), false
	}
	return float64(m.n) / m.recipSum, true
}

package accum

import (
	"slices"

	"github.com/paveg/tabstat/internal/fieldtype"
)

// SortOrder classifies the order of a column's non-null values.
type SortOrder uint8

const (
	// Unsorted means neither ascending nor descending, or not provably either.
	Unsorted SortOrder = iota
	// Ascending means every adjacent pair is non-decreasing.
	Ascending
	// Descending means every adjacent pair is non-increasing and at least one
	// pair decreases.
	Descending
)

func (o SortOrder) String() string {
	switch o {
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	default:
		return "Unsorted"
	}
}

// tally counts adjacent value pairs by direction.
type tally struct {
	asc, desc, eq uint64
}

func (t tally) plus(o tally) tally {
	return tally{asc: t.asc + o.asc, desc: t.desc + o.desc, eq: t.eq + o.eq}
}

func (t *tally) pair(cmp int) {
	switch {
	case cmp < 0:
		t.asc++
	case cmp > 0:
		t.desc++
	default:
		t.eq++
	}
}

func (t tally) pairs() uint64 { return t.asc + t.desc + t.eq }

func (t tally) order() SortOrder {
	switch {
	case t.desc == 0:
		return Ascending
	case t.asc == 0:
		return Descending
	default:
		return Unsorted
	}
}

func (t tally) sortiness() float64 {
	n := t.pairs()
	if n == 0 {
		return 1
	}
	return float64(max(t.asc, t.desc)+t.eq) / float64(n)
}

// segment is the ordering state of a contiguous run of rows [start, end).
// Values are compared twice: byte-wise for every non-null value and by
// numeric key for numbers and timestamps.
type segment struct {
	start, end uint64

	byteFirst, byteLast string
	byteSeen            bool
	bytes               tally

	numFirst, numLast float64
	numSeen           bool
	num               tally
}

func (s *segment) addBytes(v string) {
	if s.byteSeen {
		s.bytes.pair(compareStrings(s.byteLast, v))
	} else {
		s.byteFirst, s.byteSeen = v, true
	}
	s.byteLast = v
}

func (s *segment) addNum(v float64) {
	if s.numSeen {
		s.num.pair(compareFloats(s.numLast, v))
	} else {
		s.numFirst, s.numSeen = v, true
	}
	s.numLast = v
}

// join appends next, which must start where s ends, adding the pair that
// straddles the boundary.
func (s segment) join(next segment) segment {
	out := s
	out.end = next.end
	out.bytes = s.bytes.plus(next.bytes)
	out.num = s.num.plus(next.num)

	if next.byteSeen {
		if s.byteSeen {
			out.bytes.pair(compareStrings(s.byteLast, next.byteFirst))
		} else {
			out.byteFirst, out.byteSeen = next.byteFirst, true
		}
		out.byteLast = next.byteLast
	}
	if next.numSeen {
		if s.numSeen {
			out.num.pair(compareFloats(s.numLast, next.numFirst))
		} else {
			out.numFirst, out.numSeen = next.numFirst, true
		}
		out.numLast = next.numLast
	}
	return out
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MinMax tracks per-domain extremes, the byte-length extent and the sort
// order of a column. Every non-null value feeds the string and length
// domains; the numeric domains are fed according to the column's running
// type. The zero value is ready to use.
type MinMax struct {
	strs    extent[string]
	lengths extent[int]
	ints    extent[int64]
	floats  extent[float64]
	dates   extent[int64]

	segs []segment
	// overlap is set when merged inputs covered overlapping rows, which makes
	// any ordering claim unprovable.
	overlap bool
}

func (m *MinMax) current(row uint64) *segment {
	if n := len(m.segs); n > 0 && m.segs[n-1].end == row {
		s := &m.segs[n-1]
		s.end = row + 1
		return s
	}
	m.segs = append(m.segs, segment{start: row, end: row + 1})
	return &m.segs[len(m.segs)-1]
}

// Add records the non-null value at row under the column's post-merge type t.
func (m *MinMax) Add(row uint64, t fieldtype.FieldType, value string, sample fieldtype.Sample) {
	seg := m.current(row)
	seg.addBytes(value)
	m.strs.add(value)
	m.lengths.add(len(value))

	switch t {
	case fieldtype.Integer:
		m.ints.add(sample.Int)
		m.floats.add(sample.Float)
		seg.addNum(sample.Float)
	case fieldtype.Float:
		m.floats.add(sample.Float)
		seg.addNum(sample.Float)
	case fieldtype.Date, fieldtype.DateTime:
		m.dates.add(sample.Millis)
		seg.addNum(float64(sample.Millis))
	default:
	}
}

// AddNull records a null at row. Nulls extend the covered row span but are
// skipped by the ordering comparison.
func (m *MinMax) AddNull(row uint64) {
	m.current(row)
}

// MergeMinMax combines two trackers. Row spans that touch are joined into a
// single run; overlapping spans mark the result as not provably sorted.
func MergeMinMax(a, b *MinMax) *MinMax {
	out := &MinMax{
		strs:    mergeExtent(a.strs, b.strs),
		lengths: mergeExtent(a.lengths, b.lengths),
		ints:    mergeExtent(a.ints, b.ints),
		floats:  mergeExtent(a.floats, b.floats),
		dates:   mergeExtent(a.dates, b.dates),
		overlap: a.overlap || b.overlap,
	}

	all := make([]segment, 0, len(a.segs)+len(b.segs))
	all = append(all, a.segs...)
	all = append(all, b.segs...)
	slices.SortStableFunc(all, func(x, y segment) int {
		switch {
		case x.start < y.start:
			return -1
		case x.start > y.start:
			return 1
		default:
			return 0
		}
	})

	for _, s := range all {
		n := len(out.segs)
		switch {
		case n == 0:
			out.segs = append(out.segs, s)
		case out.segs[n-1].end == s.start:
			out.segs[n-1] = out.segs[n-1].join(s)
		default:
			if out.segs[n-1].end > s.start {
				out.overlap = true
			}
			out.segs = append(out.segs, s)
		}
	}
	return out
}

func (m *MinMax) tallies() (bytes, num tally) {
	for _, s := range m.segs {
		bytes = bytes.plus(s.bytes)
		num = num.plus(s.num)
	}
	return bytes, num
}

func (m *MinMax) tallyFor(t fieldtype.FieldType) tally {
	bytes, num := m.tallies()
	if t.IsNumeric() || t.IsTemporal() {
		return num
	}
	return bytes
}

func (m *MinMax) provable() bool {
	return !m.overlap && len(m.segs) <= 1
}

// SortOrder reports the order of the values compared as type t. Data split
// over disjoint row runs or overlapping runs is reported Unsorted.
func (m *MinMax) SortOrder(t fieldtype.FieldType) SortOrder {
	if !m.provable() {
		return Unsorted
	}
	return m.tallyFor(t).order()
}

// Sortiness is the share of adjacent pairs that follow the dominant direction,
// counting equal pairs as ordered. It is 1 when there are fewer than two
// values.
func (m *MinMax) Sortiness(t fieldtype.FieldType) float64 {
	return m.tallyFor(t).sortiness()
}

// ByteTransitions returns the number of adjacent non-null pairs that differ
// byte-wise, and whether the values are provably in ascending byte order.
// For ascending data the distinct non-null count is transitions+1.
func (m *MinMax) ByteTransitions() (uint64, bool) {
	bytes, _ := m.tallies()
	if !m.provable() || bytes.order() != Ascending {
		return 0, false
	}
	return bytes.asc + bytes.desc, true
}

// Strings returns the byte-wise extremes of every non-null value.
func (m *MinMax) Strings() (lo, hi string, ok bool) {
	return m.strs.min, m.strs.max, m.strs.seen
}

// Lengths returns the shortest and longest non-null value in bytes.
func (m *MinMax) Lengths() (lo, hi int, ok bool) {
	return m.lengths.min, m.lengths.max, m.lengths.seen
}

// Ints returns the integer extremes.
func (m *MinMax) Ints() (lo, hi int64, ok bool) {
	return m.ints.min, m.ints.max, m.ints.seen
}

// Floats returns the float extremes, integers included.
func (m *MinMax) Floats() (lo, hi float64, ok bool) {
	return m.floats.min, m.floats.max, m.floats.seen
}

// Dates returns the timestamp extremes in epoch milliseconds.
func (m *MinMax) Dates() (lo, hi int64, ok bool) {
	return m.dates.min, m.dates.max, m.dates.seen
}

// Show renders min, max and range for type t. The range is empty for
// strings and expressed in days for dates.
func (m *MinMax) Show(t fieldtype.FieldType, formatFloat func(float64) string) (lo, hi, rng string) {
	switch t {
	case fieldtype.Integer:
		if !m.ints.seen {
			return "", "", ""
		}
		span := uint64(m.ints.max) - uint64(m.ints.min) //nolint:gosec // two's complement difference is exact for max >= min
		return formatInt(m.ints.min), formatInt(m.ints.max), formatUint(span)
	case fieldtype.Float:
		if !m.floats.seen {
			return "", "", ""
		}
		return formatFloat(m.floats.min), formatFloat(m.floats.max), formatFloat(m.floats.max - m.floats.min)
	case fieldtype.Date, fieldtype.DateTime:
		if !m.dates.seen {
			return "", "", ""
		}
		days := float64(m.dates.max-m.dates.min) / float64(fieldtype.MillisPerDay)
		return fieldtype.FormatMillis(m.dates.min, t), fieldtype.FormatMillis(m.dates.max, t), formatFloat(days)
	case fieldtype.String:
		if !m.strs.seen {
			return "", "", ""
		}
		return m.strs.min, m.strs.max, ""
	default:
		return "", "", ""
	}
}

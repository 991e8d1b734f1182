package accum

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type entry struct {
	value string
	count uint64
}

// Frequencies is a multiset of raw values keyed by their xxhash digest.
// Colliding values share a bucket and are told apart by comparison.
type Frequencies struct {
	buckets  map[uint64][]entry
	distinct uint64
	total    uint64
}

// NewFrequencies creates an empty multiset.
func NewFrequencies() *Frequencies {
	return &Frequencies{buckets: make(map[uint64][]entry)}
}

// Add counts one occurrence of value.
func (f *Frequencies) Add(value string) {
	f.addN(xxhash.Sum64String(value), value, 1)
}

func (f *Frequencies) addN(h uint64, value string, n uint64) {
	f.total += n
	bucket := f.buckets[h]
	for i := range bucket {
		if bucket[i].value == value {
			bucket[i].count += n
			return
		}
	}
	f.buckets[h] = append(bucket, entry{value: strings.Clone(value), count: n})
	f.distinct++
}

// Cardinality returns the number of distinct values.
func (f *Frequencies) Cardinality() uint64 { return f.distinct }

// Total returns the number of values counted.
func (f *Frequencies) Total() uint64 { return f.total }

// Count returns the occurrences of value.
func (f *Frequencies) Count(value string) uint64 {
	for _, e := range f.buckets[xxhash.Sum64String(value)] {
		if e.value == value {
			return e.count
		}
	}
	return 0
}

// MergeFrequencies returns the union of a and b with summed counts.
func MergeFrequencies(a, b *Frequencies) *Frequencies {
	out := &Frequencies{
		buckets:  make(map[uint64][]entry, len(a.buckets)),
		distinct: a.distinct,
		total:    a.total,
	}
	for h, bucket := range a.buckets {
		out.buckets[h] = slices.Clone(bucket)
	}
	for h, bucket := range b.buckets {
		for _, e := range bucket {
			out.addN(h, e.value, e.count)
		}
	}
	return out
}

// ModeSet is a group of values sharing one occurrence count.
type ModeSet struct {
	// Values are sorted byte-wise.
	Values []string
	// Occurrences is the count each value was seen.
	Occurrences uint64
}

// Modes returns the most frequent values.
func (f *Frequencies) Modes() ModeSet {
	return f.extreme(func(c, best uint64) bool { return c > best })
}

// Antimodes returns the least frequent values.
func (f *Frequencies) Antimodes() ModeSet {
	return f.extreme(func(c, best uint64) bool { return c < best })
}

func (f *Frequencies) extreme(better func(c, best uint64) bool) ModeSet {
	var set ModeSet
	for _, bucket := range f.buckets {
		for _, e := range bucket {
			switch {
			case set.Values == nil || better(e.count, set.Occurrences):
				set.Values = append(set.Values[:0], e.value)
				set.Occurrences = e.count
			case e.count == set.Occurrences:
				set.Values = append(set.Values, e.value)
			}
		}
	}
	slices.Sort(set.Values)
	return set
}

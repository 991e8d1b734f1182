package accum

import "golang.org/x/exp/constraints"

// extent tracks the smallest and largest value of an ordered domain.
type extent[T constraints.Ordered] struct {
	min, max T
	seen     bool
}

func (e *extent[T]) add(v T) {
	if !e.seen {
		e.min, e.max, e.seen = v, v, true
		return
	}
	if v < e.min {
		e.min = v
	}
	if v > e.max {
		e.max = v
	}
}

func mergeExtent[T constraints.Ordered](a, b extent[T]) extent[T] {
	switch {
	case !a.seen:
		return b
	case !b.seen:
		return a
	}
	out := a
	if b.min < out.min {
		out.min = b.min
	}
	if b.max > out.max {
		out.max = b.max
	}
	return out
}

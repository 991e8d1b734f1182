package io

import (
	"fmt"
	"strconv"
	"strings"

	tserrors "github.com/paveg/tabstat/internal/errors"
)

type selector struct {
	name     string
	from, to int // 1-based, inclusive; zero when name is set
}

// Selection picks columns by name, 1-based index or index range, e.g.
// "1,3-5,amount". The zero Selection picks every column.
type Selection struct {
	parts []selector
}

// ParseSelection parses a comma-separated column selection. A part is a
// range only when both of its ends are integers, so names may contain
// dashes.
func ParseSelection(expr string) (Selection, error) {
	var sel Selection
	if strings.TrimSpace(expr) == "" {
		return sel, nil
	}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Selection{}, fmt.Errorf("empty column selector in %q", expr)
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 1 {
				return Selection{}, fmt.Errorf("column index must be at least 1, got %d", n)
			}
			sel.parts = append(sel.parts, selector{from: n, to: n})
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, errFrom := strconv.Atoi(strings.TrimSpace(lo))
			to, errTo := strconv.Atoi(strings.TrimSpace(hi))
			if errFrom == nil && errTo == nil {
				if from < 1 || to < from {
					return Selection{}, fmt.Errorf("invalid column range %q", part)
				}
				sel.parts = append(sel.parts, selector{from: from, to: to})
				continue
			}
		}
		sel.parts = append(sel.parts, selector{name: part})
	}
	return sel, nil
}

// IsAll reports whether the selection picks every column.
func (s Selection) IsAll() bool { return len(s.parts) == 0 }

// Resolve maps the selection onto headers and returns 0-based column
// indices in selection order. Duplicates are kept.
func (s Selection) Resolve(headers []string) ([]int, error) {
	if s.IsAll() {
		out := make([]int, len(headers))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	var out []int
	for _, p := range s.parts {
		if p.name != "" {
			i := indexOf(headers, p.name)
			if i < 0 {
				return nil, tserrors.NewColumnNotFoundError(p.name, headers)
			}
			out = append(out, i)
			continue
		}
		if p.to > len(headers) {
			return nil, tserrors.NewColumnNotFoundError(strconv.Itoa(p.to), nil).
				WithHint(fmt.Sprintf("input has %d columns", len(headers)))
		}
		for i := p.from; i <= p.to; i++ {
			out = append(out, i-1)
		}
	}
	return out, nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

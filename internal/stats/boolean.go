package stats

import (
	"fmt"
	"strings"
)

// BoolPattern is a true/false pair. A pattern ending in '*' matches any
// value with that prefix; otherwise the match is exact. Matching ignores
// case.
type BoolPattern struct {
	True  string
	False string
}

// ParseBoolPatterns parses a comma-separated list of true:false pairs such
// as "1:0,t*:f*,y*:n*".
func ParseBoolPatterns(s string) ([]BoolPattern, error) {
	var out []BoolPattern
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		t, f, ok := strings.Cut(pair, ":")
		if !ok || t == "" || f == "" {
			return nil, fmt.Errorf("invalid boolean pattern %q: want true:false", pair)
		}
		out = append(out, BoolPattern{True: strings.ToLower(t), False: strings.ToLower(f)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no boolean patterns in %q", s)
	}
	return out, nil
}

func matchPattern(pattern, value string) bool {
	value = strings.ToLower(value)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(value, prefix)
	}
	return value == pattern
}

// matches reports whether one of a and b matches the true side and the other
// the false side.
func (p BoolPattern) matches(a, b string) bool {
	return (matchPattern(p.True, a) && matchPattern(p.False, b)) ||
		(matchPattern(p.True, b) && matchPattern(p.False, a))
}

func isBoolean(patterns []BoolPattern, a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, p := range patterns {
		if p.matches(a, b) {
			return true
		}
	}
	return false
}

// Package errors provides the structured error type returned by scan, index
// and I/O operations. Per-value anomalies never become errors; only
// configuration, precondition and I/O failures do.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// StatsError carries the operation and column an error relates to.
type StatsError struct {
	Op      string // Operation name (e.g., "scan", "index", "select")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Hint    string // Optional suggestion for the user
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *StatsError) Error() string {
	var b strings.Builder
	if e.Column != "" {
		fmt.Fprintf(&b, "%s failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		fmt.Fprintf(&b, "%s failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (Hint: %s)", e.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error wrapping support
func (e *StatsError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by operation and message.
func (e *StatsError) Is(target error) bool {
	var se *StatsError
	if errors.As(target, &se) {
		return e.Op == se.Op && e.Message == se.Message && (se.Column == "" || e.Column == se.Column)
	}
	return false
}

// WithHint returns a copy of e carrying hint.
func (e *StatsError) WithHint(hint string) *StatsError {
	out := *e
	out.Hint = hint
	return &out
}

// Sentinel errors, matched with errors.Is.
var (
	// ErrMemoryBudget means the estimated memory for buffered statistics
	// exceeds the configured share of available memory.
	ErrMemoryBudget = &StatsError{Op: "memcheck", Message: "not enough memory for buffered statistics"}
	// ErrNoIndex means a parallel scan was requested without a row index.
	ErrNoIndex = &StatsError{Op: "index", Message: "no row index"}
	// ErrStaleIndex means the index is older than the file it indexes.
	ErrStaleIndex = &StatsError{Op: "index", Message: "index is older than its file"}
	// ErrColumnNotFound means a selected column does not exist.
	ErrColumnNotFound = &StatsError{Op: "select", Message: "column does not exist"}
	// ErrCompressedSeek means random access was requested on a compressed input.
	ErrCompressedSeek = &StatsError{Op: "index", Message: "compressed input cannot be indexed"}
)

// NewMemoryBudgetError reports the estimate that exceeded the budget.
func NewMemoryBudgetError(estimate, budget uint64) *StatsError {
	return ErrMemoryBudget.WithHint(fmt.Sprintf(
		"estimated %d bytes exceeds budget of %d bytes; drop buffered statistics or raise the memory fraction",
		estimate, budget))
}

// NewColumnNotFoundError creates an error for a selector naming no column,
// suggesting the closest available names.
func NewColumnNotFoundError(column string, available []string) *StatsError {
	err := &StatsError{Op: ErrColumnNotFound.Op, Column: column, Message: ErrColumnNotFound.Message}
	if s := suggest(column, available); s != "" {
		return err.WithHint(fmt.Sprintf("did you mean '%s'?", s))
	}
	return err
}

// NewScanError wraps a read failure in a scan chunk.
func NewScanError(chunk int, cause error) *StatsError {
	return &StatsError{Op: "scan", Message: fmt.Sprintf("reading chunk %d", chunk), Cause: cause}
}

// NewIndexError wraps an index build, load or seek failure.
func NewIndexError(message string, cause error) *StatsError {
	return &StatsError{Op: "index", Message: message, Cause: cause}
}

// NewConfigError creates an error for invalid configuration.
func NewConfigError(message string) *StatsError {
	return &StatsError{Op: "config", Message: message}
}

func suggest(name string, candidates []string) string {
	best, bestDist := "", len(name)/2+1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if d := distance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// distance is the Levenshtein edit distance of a and b.
func distance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

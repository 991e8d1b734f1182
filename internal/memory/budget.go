// Package memory implements the memory precondition for buffered
// statistics. Streaming statistics use constant memory per column; order
// statistics and frequency tables grow with the input, so a scan that
// requests them is refused up front when the input is unlikely to fit.
package memory

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	tserrors "github.com/paveg/tabstat/internal/errors"
)

const (
	// compressionRatio approximates how much a compressed input expands.
	compressionRatio = 5
	// valueOverhead approximates per-byte bookkeeping of a frequency table
	// relative to the raw text it stores.
	valueOverhead = 2
)

// AvailableFunc reports the bytes of memory available to the process.
type AvailableFunc func() (uint64, error)

// SystemAvailable reads available memory from the operating system.
func SystemAvailable() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("reading virtual memory stats: %w", err)
	}
	return vm.Available, nil
}

// Requirements describes what a scan will buffer.
type Requirements struct {
	// InputBytes is the size of the input file on disk.
	InputBytes uint64
	// Compressed is set for inputs read through a decompressor.
	Compressed bool
	// BuffersValues is set when order statistics keep every numeric value.
	BuffersValues bool
	// CountsValues is set when a frequency table keeps every distinct value.
	CountsValues bool
}

// Estimate returns the expected peak bytes held by buffered statistics.
// It is zero for streaming-only scans.
func (r Requirements) Estimate() uint64 {
	if !r.BuffersValues && !r.CountsValues {
		return 0
	}
	raw := r.InputBytes
	if r.Compressed {
		raw *= compressionRatio
	}
	var total uint64
	if r.BuffersValues {
		total += raw
	}
	if r.CountsValues {
		total += raw * valueOverhead
	}
	return total
}

// Checker compares estimates against a share of available memory.
type Checker struct {
	// Fraction is the share of available memory a scan may use.
	Fraction  float64
	Available AvailableFunc
}

// NewChecker creates a checker reading available memory from the system.
func NewChecker(fraction float64) *Checker {
	return &Checker{Fraction: fraction, Available: SystemAvailable}
}

// Check returns an error matching errors.ErrMemoryBudget when req is
// expected to exceed the budget.
func (c *Checker) Check(req Requirements) error {
	estimate := req.Estimate()
	if estimate == 0 {
		return nil
	}
	available, err := c.Available()
	if err != nil {
		return err
	}
	budget := uint64(float64(available) * c.Fraction)
	if estimate > budget {
		return tserrors.NewMemoryBudgetError(estimate, budget)
	}
	return nil
}

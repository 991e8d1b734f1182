package memory_test

import (
	"errors"
	"testing"

	tserrors "github.com/paveg/tabstat/internal/errors"
	"github.com/paveg/tabstat/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(n uint64) memory.AvailableFunc {
	return func() (uint64, error) { return n, nil }
}

func TestRequirements_Estimate(t *testing.T) {
	tests := []struct {
		name     string
		req      memory.Requirements
		expected uint64
	}{
		{"streaming", memory.Requirements{InputBytes: 1000}, 0},
		{"values", memory.Requirements{InputBytes: 1000, BuffersValues: true}, 1000},
		{"frequencies", memory.Requirements{InputBytes: 1000, CountsValues: true}, 2000},
		{"both", memory.Requirements{InputBytes: 1000, BuffersValues: true, CountsValues: true}, 3000},
		{"compressed", memory.Requirements{InputBytes: 1000, Compressed: true, BuffersValues: true}, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.Estimate())
		})
	}
}

func TestChecker_Check(t *testing.T) {
	c := &memory.Checker{Fraction: 0.5, Available: fixed(10_000)}

	assert.NoError(t, c.Check(memory.Requirements{InputBytes: 1 << 40}), "streaming scans always pass")
	assert.NoError(t, c.Check(memory.Requirements{InputBytes: 5000, BuffersValues: true}))

	err := c.Check(memory.Requirements{InputBytes: 5001, BuffersValues: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, tserrors.ErrMemoryBudget)
	assert.Contains(t, err.Error(), "estimated 5001 bytes exceeds budget of 5000 bytes")
}

func TestChecker_AvailableError(t *testing.T) {
	boom := errors.New("no /proc")
	c := &memory.Checker{Fraction: 1, Available: func() (uint64, error) { return 0, boom }}

	err := c.Check(memory.Requirements{InputBytes: 1, CountsValues: true})
	assert.ErrorIs(t, err, boom)
}

func TestSystemAvailable(t *testing.T) {
	n, err := memory.SystemAvailable()
	require.NoError(t, err)
	assert.Positive(t, n)
}

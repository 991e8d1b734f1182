package accum_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabstat/internal/accum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeQuartiles(t *testing.T) {
	tests := []struct {
		name       string
		data       []float64
		q1, q2, q3 float64
	}{
		{"one to ten", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3, 5.5, 8},
		{"three", []float64{1, 2, 3}, 1, 2, 3},
		{"four", []float64{1, 2, 3, 4}, 1.5, 2.5, 3.5},
		{"five", []float64{1, 2, 3, 4, 5}, 1.5, 3, 4.5},
		{"seven", []float64{1, 2, 3, 4, 5, 6, 7}, 2, 4, 6},
		{"eight", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 2.5, 4.5, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := accum.ComputeQuartiles(tt.data)
			require.True(t, ok)
			assert.InDelta(t, tt.q1, q.Q1, 1e-12)
			assert.InDelta(t, tt.q2, q.Q2, 1e-12)
			assert.InDelta(t, tt.q3, q.Q3, 1e-12)
		})
	}

	_, ok := accum.ComputeQuartiles([]float64{1, 2})
	assert.False(t, ok)
}

func TestQuartiles_Derived(t *testing.T) {
	q, ok := accum.ComputeQuartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.True(t, ok)

	assert.InDelta(t, 5.0, q.IQR(), 1e-12)
	lo, hi := q.InnerFences()
	assert.InDelta(t, -4.5, lo, 1e-12)
	assert.InDelta(t, 15.5, hi, 1e-12)
	lo, hi = q.OuterFences()
	assert.InDelta(t, -12.0, lo, 1e-12)
	assert.InDelta(t, 23.0, hi, 1e-12)
	// (8-5.5)-(5.5-3) = 0
	assert.InDelta(t, 0.0, q.Skewness(), 1e-12)

	skewed := accum.Quartiles{Q1: 1, Q2: 2, Q3: 7}
	assert.InDelta(t, 4.0/6.0, skewed.Skewness(), 1e-12)
}

func TestMedianAndMAD(t *testing.T) {
	data := []float64{1, 1, 2, 2, 4, 6, 9}
	med, ok := accum.Median(data)
	require.True(t, ok)
	assert.InDelta(t, 2.0, med, 0)

	mad, ok := accum.MAD(data, med)
	require.True(t, ok)
	assert.InDelta(t, 1.0, mad, 0)

	even, _ := accum.Median([]float64{1, 2, 3, 4})
	assert.InDelta(t, 2.5, even, 0)

	_, ok = accum.Median(nil)
	assert.False(t, ok)
}

func TestPercentile_NearestRank(t *testing.T) {
	data := []float64{15, 20, 35, 40, 50}

	tests := []struct {
		p        float64
		expected float64
	}{
		{0, 15},
		{5, 15},
		{30, 20},
		{40, 20},
		{50, 35},
		{100, 50},
	}
	for _, tt := range tests {
		got, ok := accum.Percentile(data, tt.p)
		require.True(t, ok)
		assert.InDelta(t, tt.expected, got, 0, "p%v", tt.p)
	}

	_, ok := accum.Percentile(data, 101)
	assert.False(t, ok)
}

func TestValues_MergeSharesChunks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := accum.NewValues(mem)
	for _, x := range []float64{5, 1, 3} {
		a.Add(x)
	}
	b := accum.NewValues(mem)
	b.Add(2)
	b.Add(4)

	merged := accum.MergeValues(a, b)
	a.Release()
	b.Release()

	assert.Equal(t, 5, merged.Len())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, merged.Sorted())

	again := accum.MergeValues(merged, accum.NewValues(mem))
	merged.Release()
	assert.Equal(t, 5, again.Len())
	again.Release()
}

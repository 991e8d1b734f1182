package stats_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabstat/internal/stats"
	"github.com/stretchr/testify/assert"
)

var mergeColumns = map[string][]string{
	"integers": {"5", "-3", "12", "", "7", "100", "-44", "9", "9", "0", "", "31", "2", "8"},
	"floats":   {"1.5", "2", "", "3.25", "0.125", "9", "9", "7.5", "-2.75", "4", "1", "", "6.5", "3"},
	"sorted":   {"a", "a", "b", "", "c", "d", "d", "e", "f", "f", "g", "h", "i", "j"},
	"mixed":    {"1", "2", "3", "x", "4", "5", "", "6", "7", "8", "9", "10", "11", "12"},
	"zips":     {"10001", "02134", "94105", "", "60601", "10001", "73301", "", "02134", "1", "2", "3", "4", "5"},
	"dates":    {"2024-01-01", "2024-01-02", "", "2024-01-02", "2024-01-05", "2024-02-01", "2024-02-03", "2024-02-03", "2024-03-01", "2024-03-02", "2024-03-05", "", "2024-04-01", "2024-04-02"},
	"datetime": {"2024-01-01", "2024-01-01 10:00:00", "2024-01-02", "", "2024-01-03 08:30:00", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11", "2024-01-12"},
}

// chunked builds one Column per chunk boundary pair.
func chunked(t *testing.T, opts *stats.Options, mem memory.Allocator, values []string, cuts []int) []*stats.Column {
	t.Helper()
	var out []*stats.Column
	start := 0
	for _, end := range append(cuts, len(values)) {
		out = append(out, build(t, opts, mem, uint64(start), values[start:end]...))
		start = end
	}
	return out
}

// fold merges parts in the given order into a Column the caller owns,
// releasing intermediates.
func fold(opts *stats.Options, parts []*stats.Column, order []int) *stats.Column {
	empty := stats.NewColumn(stats.ColumnSpec{Index: 0, Name: "col"}, 0, opts, nil)
	acc := stats.Merge(parts[order[0]], empty)
	for _, i := range order[1:] {
		next := stats.Merge(acc, parts[i])
		acc.Release()
		acc = next
	}
	return acc
}

func TestMerge_PartitionIndependent(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	opts := everything()
	opts.InferBoolean = true

	splits := [][]int{
		nil,
		{7},
		{1},
		{13},
		{3, 4, 10},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	}
	rng := rand.New(rand.NewSource(7))

	for name, values := range mergeColumns {
		whole := build(t, opts, mem, 0, values...)
		want := whole.Record()

		for _, cuts := range splits {
			parts := chunked(t, opts, mem, values, cuts)

			orders := [][]int{identity(len(parts)), reversed(len(parts)), rng.Perm(len(parts))}
			for _, order := range orders {
				merged := fold(opts, parts, order)
				assert.Equal(t, want, merged.Record(), fmt.Sprintf("%s cuts=%v order=%v", name, cuts, order))
				merged.Release()
			}

			for _, p := range parts {
				p.Release()
			}
		}
		whole.Release()
	}
}

func TestMerge_Associative(t *testing.T) {
	opts := everything()
	values := mergeColumns["floats"]

	a := build(t, opts, nil, 0, values[:4]...)
	b := build(t, opts, nil, 4, values[4:9]...)
	c := build(t, opts, nil, 9, values[9:]...)

	ab := stats.Merge(a, b)
	bc := stats.Merge(b, c)
	left := stats.Merge(ab, c)
	right := stats.Merge(a, bc)

	assert.Equal(t, left.Record(), right.Record())
	assert.Equal(t, stats.Merge(a, b).Record(), stats.Merge(b, a).Record())

	for _, col := range []*stats.Column{a, b, c, ab, bc, left, right} {
		col.Release()
	}
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func reversed(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

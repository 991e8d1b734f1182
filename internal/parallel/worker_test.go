package parallel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paveg/tabstat/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Positive(t, pool.Workers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.Workers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, pool.Workers(), pool3.Workers())
}

func TestScatter_PreservesOrder(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()

	input := []int{5, 4, 3, 2, 1, 0, 9, 8}
	results, err := parallel.Scatter(context.Background(), pool, input,
		func(_ context.Context, i int, x int) (int, error) {
			// finish out of order
			time.Sleep(time.Duration(x) * time.Millisecond)
			return i*100 + x*x, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 116, 209, 304, 401, 500, 681, 764}, results)
}

func TestScatter_Empty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results, err := parallel.Scatter(context.Background(), pool, []int{},
		func(context.Context, int, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScatter_BoundedConcurrency(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	var running, peak atomic.Int32
	_, err := parallel.Scatter(context.Background(), pool, make([]struct{}, 10),
		func(context.Context, int, struct{}) (struct{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestScatter_ErrorIsFatal(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	boom := errors.New("seek failed")
	var started, succeeded atomic.Int32

	results, err := parallel.Scatter(context.Background(), pool, make([]int, 50),
		func(ctx context.Context, i int, _ int) (int, error) {
			started.Add(1)
			if i == 1 {
				return 0, boom
			}
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(2 * time.Millisecond):
				succeeded.Add(1)
				return i + 1, nil
			}
		})
	require.ErrorIs(t, err, boom)
	assert.Less(t, started.Load(), int32(50), "remaining work is skipped")

	// every successful result is handed back for cleanup
	require.Len(t, results, 50)
	assert.Zero(t, results[1])
	var delivered int32
	for i, r := range results {
		if r != 0 {
			assert.Equal(t, i+1, r)
			delivered++
		}
	}
	assert.Equal(t, succeeded.Load(), delivered)
}

func TestScatter_ClosedPool(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	pool.Close()

	_, err := parallel.Scatter(context.Background(), pool, []int{1, 2, 3},
		func(context.Context, int, int) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessIndexed(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	input := []string{"a", "bb", "ccc", "dddd"}
	results := parallel.ProcessIndexed(pool, input, func(i int, s string) int {
		return i + len(s)
	})
	assert.Equal(t, []int{1, 3, 5, 7}, results)

	assert.Nil(t, parallel.ProcessIndexed(pool, []string{}, func(int, string) int { return 0 }))
}

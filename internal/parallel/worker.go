// Package parallel provides the worker pool used by chunked scans.
//
// Work is scattered over a fixed number of goroutines and gathered over a
// bounded channel. A failing worker cancels the rest and its error is
// returned to the caller; there is no partial result.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.numWorkers }

// Scatter runs worker once per item on at most Workers() goroutines and
// returns the results in item order. Results travel to the caller over a
// channel holding at most Workers() values. The first error cancels the
// context passed to the remaining workers and is returned together with the
// results of the items that did succeed, zero values elsewhere, so the
// caller can release them.
func Scatter[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(ctx context.Context, index int, item T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, stop := mergeCancel(ctx, wp.ctx)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	resultCh := make(chan indexedResult[R], wp.numWorkers)
	errCh := make(chan error, 1)

	go func() {
		for i, item := range items {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				result, err := worker(gctx, i, item)
				if err != nil {
					return err
				}
				// the caller drains resultCh until it is closed
				resultCh <- indexedResult[R]{index: i, result: result}
				return nil
			})
		}
		errCh <- g.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for r := range resultCh {
		results[r.index] = r.result
	}
	if err := <-errCh; err != nil {
		return results, err
	}
	return results, nil
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	// Channel for input items with index
	itemCh := make(chan indexedItem[T], len(items))

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	// Send items to workers
	for i, item := range items {
		itemCh <- indexedItem[T]{index: i, value: item}
	}
	close(itemCh)

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and maintain order
	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// mergeCancel returns a context cancelled when either parent is done.
func mergeCancel(parent, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if other.Err() != nil {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}

// Package scan drives a statistics pass over a delimited file.
//
// A sequential scan feeds every row to one set of column accumulators. A
// parallel scan uses the file's row index to split the rows into one chunk
// per job, builds an accumulator set per chunk on the worker pool and folds
// the sets together in chunk order. Both produce identical results.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	tserrors "github.com/paveg/tabstat/internal/errors"
	"github.com/paveg/tabstat/internal/index"
	tsio "github.com/paveg/tabstat/internal/io"
	tsmem "github.com/paveg/tabstat/internal/memory"
	"github.com/paveg/tabstat/internal/monitoring"
	"github.com/paveg/tabstat/internal/parallel"
	"github.com/paveg/tabstat/internal/stats"
)

const readBufferSize = 1 << 20

// Config describes one scan.
type Config struct {
	Path      string
	CSV       tsio.CSVOptions
	Selection tsio.Selection
	// Stats is normalized before use.
	Stats stats.Options

	// Jobs is the number of chunks and workers; 0 uses every CPU.
	Jobs int
	// ParallelThreshold is the smallest row count scanned in parallel.
	ParallelThreshold uint64
	// ForceIndex builds an in-memory index when none is usable.
	ForceIndex bool

	// Checker refuses buffered statistics on inputs that may not fit in
	// memory. Nil skips the check.
	Checker *tsmem.Checker

	// Mem backs the numeric value buffers. Nil uses the Go allocator.
	Mem     memory.Allocator
	Logger  *zap.Logger
	Metrics *monitoring.MetricsCollector
}

// Result holds one merged Column per selected column.
type Result struct {
	Options  stats.Options
	Columns  []*stats.Column
	Rows     uint64
	Parallel bool
	Chunks   int
}

// Headers returns the summary header row.
func (r *Result) Headers() []string { return stats.Headers(r.Options) }

// Records renders one summary record per column on pool.
func (r *Result) Records(pool *parallel.WorkerPool) [][]string {
	return parallel.ProcessIndexed(pool, r.Columns, func(_ int, c *stats.Column) []string {
		return c.Record()
	})
}

// Release frees the buffered values of every column.
func (r *Result) Release() {
	for _, c := range r.Columns {
		c.Release()
	}
	r.Columns = nil
}

// chunk is a contiguous run of data rows.
type chunk struct {
	start  uint64
	rows   uint64
	offset int64
}

// Run scans cfg.Path and returns the merged statistics.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts := cfg.Stats.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, tserrors.NewConfigError(err.Error())
	}

	src, err := tsio.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if cfg.Checker != nil {
		req := tsmem.Requirements{
			InputBytes:    uint64(src.Size), //nolint:gosec // file sizes are non-negative
			Compressed:    src.Compressed(),
			BuffersValues: opts.Families.BuffersValues(),
			CountsValues:  opts.Families.CountsValues(),
		}
		if err := cfg.Checker.Check(req); err != nil {
			return nil, err
		}
	}

	reader := tsio.NewCSVReader(bufio.NewReaderSize(src, readBufferSize), cfg.CSV)
	headers, err := reader.ReadHeaders()
	if err != nil {
		return nil, tserrors.NewScanError(0, err)
	}
	columns, err := cfg.Selection.Resolve(headers)
	if err != nil {
		return nil, err
	}
	specs := make([]stats.ColumnSpec, len(columns))
	for i, idx := range columns {
		specs[i] = stats.ColumnSpec{Index: idx, Name: headers[idx]}
	}

	pool := parallel.NewWorkerPool(cfg.Jobs)
	defer pool.Close()

	result := &Result{Options: opts}
	err = cfg.Metrics.RecordOperation("scan", func(m *monitoring.OperationMetrics) error {
		start := time.Now()

		var idx *index.Index
		if pool.Workers() > 1 {
			idx = loadIndex(cfg, src.Compressed(), log)
		}

		if idx != nil && idx.Rows() > 0 && idx.Rows() >= cfg.ParallelThreshold {
			chunks, err := plan(idx, pool.Workers())
			if err != nil {
				return err
			}
			log.Debug("parallel scan",
				zap.String("path", cfg.Path),
				zap.Uint64("rows", idx.Rows()),
				zap.Int("chunks", len(chunks)),
				zap.Int("workers", pool.Workers()))

			cols, err := scatter(ctx, pool, cfg, &opts, specs, chunks)
			if err != nil {
				return err
			}
			result.Columns, result.Parallel, result.Chunks = cols, true, len(chunks)
			result.Rows = idx.Rows()
		} else {
			log.Debug("sequential scan", zap.String("path", cfg.Path), zap.Int("columns", len(specs)))

			cols := newColumns(specs, 0, &opts, cfg.Mem)
			rows, err := feed(reader, cols)
			if err != nil {
				release(cols)
				return tserrors.NewScanError(0, err)
			}
			result.Columns, result.Chunks, result.Rows = cols, 1, rows
		}
		m.RowsProcessed, m.Chunks, m.Parallel = result.Rows, result.Chunks, result.Parallel

		log.Debug("scan finished",
			zap.Uint64("rows", result.Rows),
			zap.Bool("parallel", result.Parallel),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadIndex returns a usable row index or nil for a sequential scan.
func loadIndex(cfg Config, compressed bool, log *zap.Logger) *index.Index {
	if compressed {
		log.Debug("compressed input, scanning sequentially")
		return nil
	}
	idx, err := index.Load(cfg.Path, cfg.CSV)
	if err == nil {
		return idx
	}
	if errors.Is(err, tserrors.ErrStaleIndex) {
		log.Warn("ignoring stale index", zap.String("path", index.PathFor(cfg.Path)), zap.Error(err))
	} else if !errors.Is(err, tserrors.ErrNoIndex) {
		log.Warn("ignoring unreadable index", zap.Error(err))
	}
	if !cfg.ForceIndex {
		return nil
	}

	idx, err = index.Build(cfg.Path, cfg.CSV)
	if err != nil {
		log.Warn("building index failed, scanning sequentially", zap.Error(err))
		return nil
	}
	log.Debug("built in-memory index", zap.Uint64("rows", idx.Rows()))
	return idx
}

// plan splits the indexed rows into at most jobs chunks of ceil(rows/jobs)
// rows each.
func plan(idx *index.Index, jobs int) ([]chunk, error) {
	rows := idx.Rows()
	size := (rows + uint64(jobs) - 1) / uint64(jobs) //nolint:gosec // jobs is positive
	var chunks []chunk
	for start := uint64(0); start < rows; start += size {
		offset, err := idx.Seek(start)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk{start: start, rows: min(size, rows-start), offset: offset})
	}
	return chunks, nil
}

// scatter scans every chunk on pool and folds the per-chunk columns in
// chunk order.
func scatter(
	ctx context.Context,
	pool *parallel.WorkerPool,
	cfg Config,
	opts *stats.Options,
	specs []stats.ColumnSpec,
	chunks []chunk,
) ([]*stats.Column, error) {
	parts, err := parallel.Scatter(ctx, pool, chunks, func(ctx context.Context, i int, c chunk) ([]*stats.Column, error) {
		cols, err := scanChunk(ctx, cfg, opts, specs, c)
		if err != nil {
			return nil, tserrors.NewScanError(i, err)
		}
		return cols, nil
	})
	if err != nil {
		for _, part := range parts {
			release(part)
		}
		return nil, err
	}

	acc := parts[0]
	for _, part := range parts[1:] {
		next := make([]*stats.Column, len(acc))
		for j := range acc {
			next[j] = stats.Merge(acc[j], part[j])
		}
		release(acc)
		release(part)
		acc = next
	}
	return acc, nil
}

// scanChunk reads exactly c.rows records starting at c.offset.
func scanChunk(ctx context.Context, cfg Config, opts *stats.Options, specs []stats.ColumnSpec, c chunk) ([]*stats.Column, error) {
	src, err := tsio.OpenAt(cfg.Path, c.offset)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	csvOpts := cfg.CSV
	csvOpts.Header = false
	reader := tsio.NewCSVReader(bufio.NewReaderSize(src, readBufferSize), csvOpts)

	cols := newColumns(specs, c.start, opts, cfg.Mem)
	for n := uint64(0); n < c.rows; n++ {
		if n%4096 == 0 && ctx.Err() != nil {
			release(cols)
			return nil, ctx.Err()
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			release(cols)
			return nil, fmt.Errorf("input ended after %d of %d rows: %w", n, c.rows, tserrors.ErrStaleIndex)
		}
		if err != nil {
			release(cols)
			return nil, err
		}
		addRecord(cols, rec)
	}
	return cols, nil
}

func newColumns(specs []stats.ColumnSpec, origin uint64, opts *stats.Options, mem memory.Allocator) []*stats.Column {
	cols := make([]*stats.Column, len(specs))
	for i, spec := range specs {
		cols[i] = stats.NewColumn(spec, origin, opts, mem)
	}
	return cols
}

// feed adds every remaining record of r and returns the row count.
func feed(r *tsio.CSVReader, cols []*stats.Column) (uint64, error) {
	var rows uint64
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("row %d: %w", rows, err)
		}
		addRecord(cols, rec)
		rows++
	}
}

// addRecord feeds one record; fields missing from a short row are null.
func addRecord(cols []*stats.Column, rec []string) {
	for _, c := range cols {
		if i := c.Index(); i < len(rec) {
			c.Add(rec[i])
		} else {
			c.Add("")
		}
	}
}

func release(cols []*stats.Column) {
	for _, c := range cols {
		c.Release()
	}
}

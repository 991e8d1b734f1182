// Package tabstat computes summary statistics and infers field types for
// delimited text files. This package is the public API of the module.
//
// Statistics are accumulated in one pass. Streaming statistics (sum,
// range, moments) use constant memory per column; cardinality, modes and
// order statistics buffer values and can be refused up front by a memory
// check. Files with a row index are scanned in parallel chunks whose
// results merge to exactly what a sequential scan produces.
package tabstat

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/paveg/tabstat/internal/index"
	tsio "github.com/paveg/tabstat/internal/io"
	tsmem "github.com/paveg/tabstat/internal/memory"
	"github.com/paveg/tabstat/internal/monitoring"
	"github.com/paveg/tabstat/internal/parallel"
	"github.com/paveg/tabstat/internal/scan"
	"github.com/paveg/tabstat/internal/stats"
)

// NoRounding disables rounding of numeric outputs.
const NoRounding = stats.NoRounding

// Options configures a statistics run.
type Options struct {
	// Select picks columns by name, 1-based index or range, e.g. "1,3-5,amount".
	Select    string
	Delimiter rune
	NoHeaders bool

	// Everything enables every statistic and date inference.
	Everything  bool
	Cardinality bool
	Median      bool
	MAD         bool
	Quartiles   bool
	Mode        bool
	Percentiles bool
	// PercentileList overrides the default percentiles 5,10,40,60,90,95.
	PercentileList []float64

	TypesOnly    bool
	IncludeNulls bool

	InferDates     bool
	PreferDMY      bool
	DatesWhitelist []string

	InferBoolean    bool
	BooleanPatterns string

	// Round is the number of decimal places, or NoRounding.
	Round int

	// Jobs is the number of parallel chunks; 0 uses every CPU.
	Jobs              int
	ParallelThreshold uint64
	ForceIndex        bool

	MemCheck       bool
	MemoryFraction float64

	CollectMetrics bool
	Allocator      memory.Allocator
	Logger         *zap.Logger
}

// DefaultOptions returns the streaming statistics for a comma-separated
// file with a header row.
func DefaultOptions() Options {
	return Options{
		Delimiter:       ',',
		DatesWhitelist:  []string{"all"},
		BooleanPatterns: stats.DefaultBooleanPatterns,
		Round:           4,
		MemoryFraction:  0.8,
	}
}

// Summary is one record of statistics per selected column.
type Summary struct {
	Headers  []string
	Records  [][]string
	Rows     uint64
	Parallel bool
	Chunks   int
}

// Write renders the summary in format: csv, tsv, json, jsonl or parquet.
func (s *Summary) Write(w io.Writer, format string) error {
	f, err := tsio.ParseFormat(format)
	if err != nil {
		return err
	}
	sw, err := tsio.NewSummaryWriter(w, f, nil)
	if err != nil {
		return err
	}
	return sw.Write(s.Headers, s.Records)
}

func (o Options) statsOptions() (stats.Options, error) {
	opts := stats.DefaultOptions()
	if o.Everything {
		opts = stats.Everything()
	}

	for _, fam := range []struct {
		on bool
		f  stats.Family
	}{
		{o.Cardinality, stats.FamilyCardinality},
		{o.Median, stats.FamilyMedian},
		{o.MAD, stats.FamilyMAD},
		{o.Quartiles, stats.FamilyQuartiles},
		{o.Mode, stats.FamilyMode},
		{o.Percentiles, stats.FamilyPercentiles},
	} {
		if fam.on {
			opts.Families |= fam.f
		}
	}

	opts.TypesOnly = o.TypesOnly
	opts.IncludeNulls = o.IncludeNulls
	opts.InferDates = opts.InferDates || o.InferDates
	opts.PreferDMY = o.PreferDMY
	opts.DatesWhitelist = o.DatesWhitelist
	opts.InferBoolean = o.InferBoolean
	opts.Round = o.Round
	if len(o.PercentileList) > 0 {
		opts.Percentiles = o.PercentileList
	}
	if o.BooleanPatterns != "" {
		patterns, err := stats.ParseBoolPatterns(o.BooleanPatterns)
		if err != nil {
			return stats.Options{}, err
		}
		opts.BooleanPatterns = patterns
	}
	return opts, nil
}

// Run computes statistics for the file at path.
func Run(ctx context.Context, path string, o Options) (*Summary, error) {
	start := time.Now()
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	statsOpts, err := o.statsOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid boolean patterns: %w", err)
	}
	sel, err := tsio.ParseSelection(o.Select)
	if err != nil {
		return nil, err
	}

	cfg := scan.Config{
		Path:              path,
		CSV:               tsio.CSVOptions{Delimiter: o.Delimiter, Header: !o.NoHeaders},
		Selection:         sel,
		Stats:             statsOpts,
		Jobs:              o.Jobs,
		ParallelThreshold: o.ParallelThreshold,
		ForceIndex:        o.ForceIndex,
		Mem:               o.Allocator,
		Logger:            log,
		Metrics:           monitoring.NewMetricsCollector(o.CollectMetrics),
	}
	if cfg.CSV.Delimiter == 0 {
		cfg.CSV.Delimiter = ','
	}
	if o.MemCheck {
		cfg.Checker = tsmem.NewChecker(o.MemoryFraction)
	}

	res, err := scan.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer res.Release()

	pool := parallel.NewWorkerPool(o.Jobs)
	defer pool.Close()

	summary := &Summary{
		Headers:  res.Headers(),
		Records:  res.Records(pool),
		Rows:     res.Rows,
		Parallel: res.Parallel,
		Chunks:   res.Chunks,
	}

	cfg.Metrics.Log(log)
	log.Debug("statistics computed",
		zap.String("path", path),
		zap.Int("columns", len(summary.Records)),
		zap.Duration("elapsed", time.Since(start)))
	return summary, nil
}

// BuildIndex writes the row index for path next to it and returns the
// number of indexed rows.
func BuildIndex(path string, delimiter rune, noHeaders bool) (uint64, error) {
	if delimiter == 0 {
		delimiter = ','
	}
	idx, err := index.Build(path, tsio.CSVOptions{Delimiter: delimiter, Header: !noHeaders})
	if err != nil {
		return 0, err
	}
	if err := idx.Save(path); err != nil {
		return 0, err
	}
	return idx.Rows(), nil
}

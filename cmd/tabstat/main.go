package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paveg/tabstat"
	"github.com/paveg/tabstat/internal/config"
	"github.com/paveg/tabstat/internal/logger"
	"github.com/paveg/tabstat/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Get().Error("command failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// globalFlags apply to every subcommand.
type globalFlags struct {
	configFile string
	logLevel   string
	delimiter  string
	noHeaders  bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "tabstat",
		Short: "Summary statistics and type inference for CSV files",
		Long: `tabstat computes summary statistics for every column of a delimited file
and infers each column's type (Integer, Float, Date, DateTime, Boolean or String).

Streaming statistics need constant memory. Cardinality, modes, medians,
quartiles and percentiles buffer values; --memcheck refuses them up front when
the input is unlikely to fit in memory. Files indexed with "tabstat index"
are scanned in parallel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to a JSON or YAML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&g.delimiter, "delimiter", "d", "", `Field delimiter, a single character or "tab"`)
	root.PersistentFlags().BoolVarP(&g.noHeaders, "no-headers", "n", false, "Treat the first row as data")

	root.AddCommand(newStatsCmd(&g), newIndexCmd(&g), newVersionCmd())
	return root
}

// loadConfig resolves file, environment and flag settings, in increasing
// precedence, and initializes the global logger.
func loadConfig(cmd *cobra.Command, g *globalFlags) (config.Config, error) {
	cfg := config.NewConfig()
	if g.configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(g.configFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg = config.LoadFromEnv(cfg)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = g.delimiter
	}

	validated, warnings, err := config.NewConfigValidator().Validate(cfg)
	if err != nil {
		return config.Config{}, err
	}

	if err := logger.Init(logger.Config{Level: validated.LogLevel, Encoding: validated.LogEncoding}); err != nil {
		return config.Config{}, err
	}
	for _, w := range warnings {
		logger.Get().Warn(w)
	}
	return validated, nil
}

type statsFlags struct {
	selection      string
	everything     bool
	cardinality    bool
	median         bool
	mad            bool
	quartiles      bool
	mode           bool
	percentiles    bool
	percentileList string
	typesOnly      bool
	includeNulls   bool
	inferDates     bool
	preferDMY      bool
	datesWhitelist string
	inferBoolean   bool
	boolPatterns   string
	round          int
	jobs           int
	forceIndex     bool
	memcheck       bool
	output         string
	format         string
	metrics        bool
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	var f statsFlags

	cmd := &cobra.Command{
		Use:   "stats [flags] FILE",
		Short: "Compute summary statistics",
		Long: `Compute summary statistics for each selected column of FILE.

Inputs ending in .gz, .zst, .lz4 or .sz are decompressed on the fly and
always scanned sequentially.

Example:
  tabstat stats --everything --select 1,3-5,amount -f jsonl data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			opts, err := statsOptions(cmd, cfg, g, &f)
			if err != nil {
				return err
			}

			summary, err := tabstat.Run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return writeSummary(cmd, summary, f.output, f.format)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.selection, "select", "s", "", "Columns to summarize: names, 1-based indices and ranges, e.g. 1,3-5,amount")
	fl.BoolVarP(&f.everything, "everything", "E", false, "Compute every statistic and infer dates")
	fl.BoolVar(&f.cardinality, "cardinality", false, "Compute cardinality and uniqueness ratio")
	fl.BoolVar(&f.median, "median", false, "Compute the median")
	fl.BoolVar(&f.mad, "mad", false, "Compute the median absolute deviation")
	fl.BoolVar(&f.quartiles, "quartiles", false, "Compute quartiles, fences, IQR and skewness")
	fl.BoolVar(&f.mode, "mode", false, "Compute mode and antimode")
	fl.BoolVar(&f.percentiles, "percentiles", false, "Compute the percentile list")
	fl.StringVar(&f.percentileList, "percentile-list", "", "Comma-separated percentiles (default from config)")
	fl.BoolVar(&f.typesOnly, "typesonly", false, "Infer types only")
	fl.BoolVar(&f.includeNulls, "nulls", false, "Include nulls in mean and variance")
	fl.BoolVar(&f.inferDates, "infer-dates", false, "Infer Date and DateTime columns")
	fl.BoolVar(&f.preferDMY, "prefer-dmy", false, "Parse ambiguous dates as day/month/year")
	fl.StringVar(&f.datesWhitelist, "dates-whitelist", "", `Column name substrings eligible for date inference, or "all"`)
	fl.BoolVar(&f.inferBoolean, "infer-boolean", false, "Infer Boolean columns from two-valued columns")
	fl.StringVar(&f.boolPatterns, "boolean-patterns", "", "true:false pattern pairs, e.g. 1:0,t*:f*")
	fl.IntVar(&f.round, "round", config.DefaultRound, "Decimal places in numeric outputs (9999 = no rounding)")
	fl.IntVarP(&f.jobs, "jobs", "j", 0, "Parallel jobs for indexed files (0 = all CPUs)")
	fl.BoolVar(&f.forceIndex, "force-index", false, "Build an in-memory index when the file has none")
	fl.BoolVar(&f.memcheck, "memcheck", false, "Refuse buffered statistics that may not fit in memory")
	fl.StringVarP(&f.output, "output", "o", "", "Write the summary to this file instead of stdout")
	fl.StringVarP(&f.format, "format", "f", "", "Output format: csv, tsv, json, jsonl or parquet (default from --output extension, else csv)")
	fl.BoolVar(&f.metrics, "metrics", false, "Log scan metrics")

	return cmd
}

// statsOptions merges configuration and flags into run options. Flags that
// were set explicitly win.
func statsOptions(cmd *cobra.Command, cfg config.Config, g *globalFlags, f *statsFlags) (tabstat.Options, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return tabstat.Options{}, err
	}
	changed := cmd.Flags().Changed

	opts := tabstat.Options{
		Select:    f.selection,
		Delimiter: delim,
		NoHeaders: g.noHeaders,

		Everything:     f.everything,
		Cardinality:    f.cardinality,
		Median:         f.median,
		MAD:            f.mad,
		Quartiles:      f.quartiles,
		Mode:           f.mode,
		Percentiles:    f.percentiles,
		PercentileList: cfg.Percentiles,

		TypesOnly:    f.typesOnly,
		IncludeNulls: f.includeNulls,

		InferDates:     f.inferDates,
		PreferDMY:      f.preferDMY,
		DatesWhitelist: cfg.DatesWhitelist,

		InferBoolean:    f.inferBoolean,
		BooleanPatterns: cfg.BooleanPatterns,

		Round: cfg.Round,

		Jobs:              cfg.Jobs,
		ParallelThreshold: uint64(cfg.ParallelThreshold), //nolint:gosec // validated non-negative
		ForceIndex:        f.forceIndex,

		MemCheck:       cfg.MemCheck || f.memcheck,
		MemoryFraction: cfg.MemoryFraction,

		CollectMetrics: cfg.MetricsCollection || f.metrics,
		Logger:         logger.Get(),
	}

	if changed("percentile-list") {
		if opts.PercentileList, err = config.ParsePercentiles(f.percentileList); err != nil {
			return tabstat.Options{}, err
		}
	}
	if changed("dates-whitelist") {
		opts.DatesWhitelist = strings.Split(f.datesWhitelist, ",")
	}
	if changed("boolean-patterns") {
		opts.BooleanPatterns = f.boolPatterns
	}
	if changed("round") {
		opts.Round = f.round
	}
	if changed("jobs") {
		opts.Jobs = f.jobs
	}
	return opts, nil
}

// writeSummary writes to path, or stdout when path is empty. An empty
// format is taken from the path's extension.
func writeSummary(cmd *cobra.Command, s *tabstat.Summary, path, format string) error {
	if format == "" {
		format = "csv"
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			format = ext
		}
	}

	if path == "" {
		return s.Write(cmd.OutOrStdout(), format)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := s.Write(out, format); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func newIndexCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index FILE",
		Short: "Write a row index for parallel scans",
		Long: `Write FILE.idx holding the byte offset of every record in FILE.

"tabstat stats" uses the index to split FILE into parallel chunks as long as
the index is newer than FILE. Compressed files cannot be indexed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			delim, err := cfg.DelimiterRune()
			if err != nil {
				return err
			}

			rows, err := tabstat.BuildIndex(args[0], delim, g.noHeaders)
			if err != nil {
				return err
			}
			logger.Get().Info("index written", zap.String("file", args[0]), zap.Uint64("rows", rows))
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d rows\n", rows)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), info.String())
				return nil
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/tabstat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 0, cfg.Jobs) // 0 means auto-detect
	assert.Equal(t, 10000, cfg.ParallelThreshold)
	assert.False(t, cfg.MemCheck)
	assert.InDelta(t, 0.8, cfg.MemoryFraction, 0.001)
	assert.Equal(t, 4, cfg.Round)
	assert.Equal(t, []float64{5, 10, 40, 60, 90, 95}, cfg.Percentiles)
	assert.Equal(t, "1:0,t*:f*,y*:n*", cfg.BooleanPatterns)
	assert.Contains(t, cfg.DatesWhitelist, "date")
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.MetricsCollection)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{"valid config", func(*config.Config) {}, ""},
		{"negative jobs", func(c *config.Config) { c.Jobs = -1 }, "Jobs must be non-negative, got -1"},
		{"negative threshold", func(c *config.Config) { c.ParallelThreshold = -5 }, "ParallelThreshold must be non-negative, got -5"},
		{"zero fraction", func(c *config.Config) { c.MemoryFraction = 0 }, "MemoryFraction must be in (0, 1], got 0.000000"},
		{"large fraction", func(c *config.Config) { c.MemoryFraction = 1.5 }, "MemoryFraction must be in (0, 1], got 1.500000"},
		{"negative round", func(c *config.Config) { c.Round = -2 }, "Round must be non-negative, got -2"},
		{"bad percentile", func(c *config.Config) { c.Percentiles = []float64{50, 120} }, "Percentiles must be between 0 and 100, got 120"},
		{"long delimiter", func(c *config.Config) { c.Delimiter = ";;" }, `Delimiter must be a single character, got ";;"`},
		{"bad encoding", func(c *config.Config) { c.LogEncoding = "xml" }, `LogEncoding must be console or json, got "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, err.Error())
			}
		})
	}
}

func TestConfig_DelimiterRune(t *testing.T) {
	for input, expected := range map[string]rune{",": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'} {
		cfg := config.Config{Delimiter: input}
		r, err := cfg.DelimiterRune()
		require.NoError(t, err, input)
		assert.Equal(t, expected, r, input)
	}
}

func TestConfig_LoadFromJSON(t *testing.T) {
	cfg, err := config.LoadFromJSON([]byte(`{"jobs": 4, "round": 2, "memcheck": true}`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, 2, cfg.Round)
	assert.True(t, cfg.MemCheck)
	// untouched keys keep defaults
	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.Equal(t, config.DefaultBooleanPatterns, cfg.BooleanPatterns)
}

func TestConfig_LoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabstat.yaml")
	content := `
jobs: 8
memory_fraction: 0.5
percentiles: [25, 50, 75]
dates_whitelist:
  - when
delimiter: ";"
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Jobs)
	assert.InDelta(t, 0.5, cfg.MemoryFraction, 0.001)
	assert.Equal(t, []float64{25, 50, 75}, cfg.Percentiles)
	assert.Equal(t, []string{"when"}, cfg.DatesWhitelist)
	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.DefaultRound, cfg.Round)
}

func TestConfig_LoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadFromFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	unsupported := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(unsupported, []byte("jobs = 1"), 0o600))
	_, err = config.LoadFromFile(unsupported)
	assert.ErrorContains(t, err, "unsupported config file format")

	invalid := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(invalid, []byte("{jobs"), 0o600))
	_, err = config.LoadFromFile(invalid)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TABSTAT_JOBS", "12")
	t.Setenv("TABSTAT_MEMCHECK", "true")
	t.Setenv("TABSTAT_ROUND", "9999")
	t.Setenv("TABSTAT_PERCENTILES", "1, 99")
	t.Setenv("TABSTAT_DATES_WHITELIST", "all")
	t.Setenv("TABSTAT_LOG_ENCODING", "json")

	cfg := config.LoadFromEnv(config.NewConfig())

	assert.Equal(t, 12, cfg.Jobs)
	assert.True(t, cfg.MemCheck)
	assert.Equal(t, 9999, cfg.Round)
	assert.Equal(t, []float64{1, 99}, cfg.Percentiles)
	assert.Equal(t, []string{"all"}, cfg.DatesWhitelist)
	assert.Equal(t, "json", cfg.LogEncoding)
}

func TestConfig_EnvironmentVariableParsing(t *testing.T) {
	t.Setenv("TABSTAT_JOBS", "invalid_number")
	t.Setenv("TABSTAT_MEMCHECK", "invalid_bool")
	t.Setenv("TABSTAT_PERCENTILES", "ten")

	cfg := config.LoadFromEnv(config.NewConfig())

	// invalid values are ignored
	assert.Equal(t, 0, cfg.Jobs)
	assert.False(t, cfg.MemCheck)
	assert.Equal(t, config.DefaultPercentiles, cfg.Percentiles)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{Jobs: 3}.WithDefaults()

	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.InDelta(t, config.DefaultMemoryFraction, cfg.MemoryFraction, 0.001)
	assert.Equal(t, config.DefaultDelimiter, cfg.Delimiter)
	assert.Equal(t, 0, cfg.Round)
}

func TestConfig_SystemInfo(t *testing.T) {
	info := config.GetSystemInfo()
	assert.Positive(t, info.CPUCount)
	assert.NotEmpty(t, info.Architecture)
	assert.NotEmpty(t, info.OSType)
}

func TestConfig_ValidationRecommendations(t *testing.T) {
	validator := config.NewConfigValidatorWithInfo(config.SystemInfo{CPUCount: 4})

	cfg := config.NewConfig()
	cfg.Jobs = 16
	_, warnings, err := validator.Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "exceeds 2x CPU count")

	validated, _, err := validator.Validate(config.NewConfig())
	require.NoError(t, err)
	assert.Equal(t, 4, validated.Jobs)

	bad := config.NewConfig()
	bad.Jobs = -1
	_, _, err = validator.Validate(bad)
	assert.Error(t, err)
}

func TestParsePercentiles(t *testing.T) {
	p, err := config.ParsePercentiles("5, 10,,90.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10, 90.5}, p)

	_, err = config.ParsePercentiles("5,x")
	assert.Error(t, err)
}

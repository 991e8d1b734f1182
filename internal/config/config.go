// Package config provides file and environment configuration for tabstat.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shirou/gopsutil/v3/mem"
	"gopkg.in/yaml.v3"
)

// Config holds settings that are not per-invocation statistic choices.
// Command-line flags override whatever a file or the environment sets.
type Config struct {
	// Parallel Processing Configuration
	Jobs              int `json:"jobs" yaml:"jobs"`                             // Number of scan workers (0 = auto-detect)
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum rows to trigger a parallel scan

	// Memory Management Configuration
	MemCheck       bool    `json:"memcheck" yaml:"memcheck"`               // Refuse buffered statistics that may not fit in memory
	MemoryFraction float64 `json:"memory_fraction" yaml:"memory_fraction"` // Share of available memory a scan may use (0.0-1.0)

	// Statistics Configuration
	Round           int       `json:"round" yaml:"round"`                       // Decimal places in outputs (9999 = no rounding)
	Percentiles     []float64 `json:"percentiles" yaml:"percentiles"`           // Default percentile list
	BooleanPatterns string    `json:"boolean_patterns" yaml:"boolean_patterns"` // true:false pattern pairs
	DatesWhitelist  []string  `json:"dates_whitelist" yaml:"dates_whitelist"`   // Column name substrings eligible for date inference

	// Input Configuration
	Delimiter string `json:"delimiter" yaml:"delimiter"` // Field delimiter, a single character

	// Logging Configuration
	LogLevel          string `json:"log_level" yaml:"log_level"`                   // debug, info, warn, error
	LogEncoding       string `json:"log_encoding" yaml:"log_encoding"`             // console or json
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection"` // Record scan metrics
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	MemorySize   uint64
	Architecture string
	OSType       string
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// Default configuration values
const (
	DefaultParallelThreshold = 10000
	DefaultMemoryFraction    = 0.8
	DefaultRound             = 4
	DefaultBooleanPatterns   = "1:0,t*:f*,y*:n*"
	DefaultDelimiter         = ","
	DefaultLogLevel          = "info"
	DefaultLogEncoding       = "console"
)

// DefaultDatesWhitelist lists the column name substrings that usually hold
// dates.
var DefaultDatesWhitelist = []string{"date", "time", "due", "open", "close", "created"}

// DefaultPercentiles is the percentile list used when none is configured.
var DefaultPercentiles = []float64{5, 10, 40, 60, 90, 95}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Jobs:              0, // Auto-detect
		ParallelThreshold: DefaultParallelThreshold,

		MemCheck:       false,
		MemoryFraction: DefaultMemoryFraction,

		Round:           DefaultRound,
		Percentiles:     append([]float64(nil), DefaultPercentiles...),
		BooleanPatterns: DefaultBooleanPatterns,
		DatesWhitelist:  append([]string(nil), DefaultDatesWhitelist...),

		Delimiter: DefaultDelimiter,

		LogLevel:          DefaultLogLevel,
		LogEncoding:       DefaultLogEncoding,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("Jobs must be non-negative, got %d", c.Jobs)
	}

	if c.ParallelThreshold < 0 {
		return fmt.Errorf("ParallelThreshold must be non-negative, got %d", c.ParallelThreshold)
	}

	if c.MemoryFraction <= 0.0 || c.MemoryFraction > 1.0 {
		return fmt.Errorf("MemoryFraction must be in (0, 1], got %f", c.MemoryFraction)
	}

	if c.Round < 0 {
		return fmt.Errorf("Round must be non-negative, got %d", c.Round)
	}

	for _, p := range c.Percentiles {
		if p < 0 || p > 100 {
			return fmt.Errorf("Percentiles must be between 0 and 100, got %v", p)
		}
	}

	if _, err := c.DelimiterRune(); err != nil {
		return err
	}

	switch c.LogEncoding {
	case "console", "json":
	default:
		return fmt.Errorf("LogEncoding must be console or json, got %q", c.LogEncoding)
	}

	return nil
}

// DelimiterRune returns the delimiter as a rune. "tab" and `\t` name the
// tab character.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("Delimiter must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	// Apply defaults for zero values
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.MemoryFraction == 0.0 {
		c.MemoryFraction = defaults.MemoryFraction
	}
	if c.Percentiles == nil {
		c.Percentiles = defaults.Percentiles
	}
	if c.BooleanPatterns == "" {
		c.BooleanPatterns = defaults.BooleanPatterns
	}
	if c.DatesWhitelist == nil {
		c.DatesWhitelist = defaults.DatesWhitelist
	}
	if c.Delimiter == "" {
		c.Delimiter = defaults.Delimiter
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogEncoding == "" {
		c.LogEncoding = defaults.LogEncoding
	}

	// Note: Round is left alone since 0 decimal places is a valid choice,
	// and boolean fields are not defaulted so an explicit false survives.

	return c
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv overlays TABSTAT_* environment variables onto base.
// Unparseable values are ignored.
func LoadFromEnv(base Config) Config {
	config := base

	if val := os.Getenv("TABSTAT_JOBS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Jobs = parsed
		}
	}

	if val := os.Getenv("TABSTAT_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("TABSTAT_MEMCHECK"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MemCheck = parsed
		}
	}

	if val := os.Getenv("TABSTAT_MEMORY_FRACTION"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.MemoryFraction = parsed
		}
	}

	if val := os.Getenv("TABSTAT_ROUND"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Round = parsed
		}
	}

	if val := os.Getenv("TABSTAT_PERCENTILES"); val != "" {
		if parsed, err := ParsePercentiles(val); err == nil {
			config.Percentiles = parsed
		}
	}

	if val := os.Getenv("TABSTAT_BOOLEAN_PATTERNS"); val != "" {
		config.BooleanPatterns = val
	}

	if val := os.Getenv("TABSTAT_DATES_WHITELIST"); val != "" {
		config.DatesWhitelist = strings.Split(val, ",")
	}

	if val := os.Getenv("TABSTAT_DELIMITER"); val != "" {
		config.Delimiter = val
	}

	if val := os.Getenv("TABSTAT_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("TABSTAT_LOG_ENCODING"); val != "" {
		config.LogEncoding = val
	}

	if val := os.Getenv("TABSTAT_METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}

// ParsePercentiles parses a comma-separated percentile list such as
// "5,10,90".
func ParsePercentiles(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentile %q: %w", part, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetSystemInfo returns system information for configuration validation.
// The memory size is the total physical memory, or 0 when unknown.
func GetSystemInfo() SystemInfo {
	var memSize uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		memSize = vm.Total
	}

	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		MemorySize:   memSize,
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// NewConfigValidatorWithInfo creates a validator for the given system.
func NewConfigValidatorWithInfo(info SystemInfo) *ConfigValidator {
	return &ConfigValidator{systemInfo: info}
}

// Validate validates a configuration and provides recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	// Basic validation
	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	// Validate worker count
	if config.Jobs > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Jobs (%d) exceeds 2x CPU count (%d), may cause contention",
				config.Jobs, cv.systemInfo.CPUCount))
	}

	// Auto-adjust unset values
	if config.Jobs == 0 {
		validated.Jobs = cv.systemInfo.CPUCount
	}

	return validated, warnings, nil
}

// Package config loads the geostyle-forecast command configuration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/peternara/geostyle/forecast/options"
)

var (
	ErrInvalidLogLevel         = errors.New("invalid log level")
	ErrInvalidLogFormat        = errors.New("invalid log format")
	ErrInvalidPeriod           = errors.New("period range must satisfy 0 < min_period < max_period")
	ErrNegativeParallelization = errors.New("negative parallelization")
	ErrNegativeProgress        = errors.New("negative progress interval")
)

// Config is the full command configuration
type Config struct {
	Forecast ForecastConfig `mapstructure:"forecast"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ForecastConfig configures the per-series fits and model selection
type ForecastConfig struct {
	ExplainFactor      float64 `mapstructure:"explain_factor"`
	ConfidenceAsWeight bool    `mapstructure:"confidence_as_weight"`
	SinusoidDisabled   bool    `mapstructure:"sinusoid_disabled"`
	SpectralSeed       bool    `mapstructure:"spectral_seed"`
	InitialFrequency   float64 `mapstructure:"initial_frequency"`
	MinPeriod          float64 `mapstructure:"min_period"`
	MaxPeriod          float64 `mapstructure:"max_period"`
}

// BatchConfig configures how series are scheduled
type BatchConfig struct {
	Parallelization  int `mapstructure:"parallelization"`
	ProgressInterval int `mapstructure:"progress_interval"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig enables writing the batch metrics in the Prometheus text format once the
// command finishes
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Forecast: ForecastConfig{
			ExplainFactor:    options.DefaultExplainFactor,
			SpectralSeed:     true,
			InitialFrequency: options.DefaultInitialFrequency,
			MinPeriod:        options.MinPeriod,
			MaxPeriod:        options.MaxPeriod,
		},
		Batch: BatchConfig{
			Parallelization:  1,
			ProgressInterval: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Path: "geostyle.prom",
		},
	}
}

// Validate checks the configuration values that are not checked by the forecast options
func (c *Config) Validate() error {
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("got %q, %w", c.Logging.Format, ErrInvalidLogFormat)
	}

	if c.Forecast.MinPeriod <= 0 || c.Forecast.MaxPeriod <= c.Forecast.MinPeriod {
		return fmt.Errorf("got %g-%g, %w", c.Forecast.MinPeriod, c.Forecast.MaxPeriod, ErrInvalidPeriod)
	}
	if c.Batch.Parallelization < 0 {
		return fmt.Errorf("got %d, %w", c.Batch.Parallelization, ErrNegativeParallelization)
	}
	if c.Batch.ProgressInterval < 0 {
		return fmt.Errorf("got %d, %w", c.Batch.ProgressInterval, ErrNegativeProgress)
	}

	if _, err := c.ForecastOptions().Validate(); err != nil {
		return fmt.Errorf("unable to validate forecast options, %w", err)
	}
	return nil
}

// SlogLevel parses the configured level
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("got %q, %w", l.Level, ErrInvalidLogLevel)
}

// ForecastOptions maps the forecast section onto the forecast options. The period range
// replaces the frequency bounds of the default sinusoid bounds.
func (c *Config) ForecastOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.ExplainFactor = c.Forecast.ExplainFactor
	opt.ConfidenceAsWeight = c.Forecast.ConfidenceAsWeight
	opt.SinusoidOptions.Disabled = c.Forecast.SinusoidDisabled
	opt.SinusoidOptions.SpectralSeed = c.Forecast.SpectralSeed
	opt.SinusoidOptions.InitialFrequency = c.Forecast.InitialFrequency
	if c.Forecast.MinPeriod > 0 && c.Forecast.MaxPeriod > 0 {
		opt.SinusoidOptions.Bounds.Lower[2] = 1.0 / c.Forecast.MaxPeriod
		opt.SinusoidOptions.Bounds.Upper[2] = 1.0 / c.Forecast.MinPeriod
	}
	return opt
}

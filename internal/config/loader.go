package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the configuration from configPath, or from config.yaml in the working directory,
// ./configs or /etc/geostyle when configPath is empty. Every key can be overridden by a
// GEOSTYLE_ prefixed environment variable, e.g. GEOSTYLE_BATCH_PARALLELIZATION.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/geostyle")
	}

	setDefaults(v)

	v.SetEnvPrefix("GEOSTYLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}
	}
	return parseConfig(v)
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("forecast.explain_factor", d.Forecast.ExplainFactor)
	v.SetDefault("forecast.confidence_as_weight", d.Forecast.ConfidenceAsWeight)
	v.SetDefault("forecast.sinusoid_disabled", d.Forecast.SinusoidDisabled)
	v.SetDefault("forecast.spectral_seed", d.Forecast.SpectralSeed)
	v.SetDefault("forecast.initial_frequency", d.Forecast.InitialFrequency)
	v.SetDefault("forecast.min_period", d.Forecast.MinPeriod)
	v.SetDefault("forecast.max_period", d.Forecast.MaxPeriod)

	v.SetDefault("batch.parallelization", d.Batch.Parallelization)
	v.SetDefault("batch.progress_interval", d.Batch.ProgressInterval)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config, %w", err)
	}
	return &cfg, nil
}

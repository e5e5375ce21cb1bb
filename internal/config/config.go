// Package config resolves settings from flags, XGMETRICS_* environment
// variables, an optional YAML file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pable/go-xg-metrics/internal/hfdata"
	"github.com/pable/go-xg-metrics/internal/xg"
)

// EnvPrefix is prepended to environment variable names (log.level -> XGMETRICS_LOG_LEVEL).
const EnvPrefix = "XGMETRICS"

// DefaultSeasons are the seasons analysed when none are given.
var DefaultSeasons = []int{20222023, 20232024, 20242025}

// Config is the fully resolved configuration.
type Config struct {
	Seasons  []int          `mapstructure:"seasons"`
	DB       string         `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// DatasetConfig selects where season tables come from. A non-empty Dir wins
// over BaseURL.
type DatasetConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type AnalysisConfig struct {
	Buckets       int `mapstructure:"buckets"`
	HistogramBins int `mapstructure:"histogram_bins"`
	Workers       int `mapstructure:"workers"`
	Version       int `mapstructure:"version"`
}

type OutputConfig struct {
	JSON    string `mapstructure:"json"`
	Parquet string `mapstructure:"parquet"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// FlagKeys maps command-line flag names to configuration keys. Flags missing
// from a command's flag set are ignored.
var FlagKeys = map[string]string{
	"seasons":   "seasons",
	"db":        "db",
	"log-level": "log.level",
	"log-json":  "log.format",
	"data-dir":  "dataset.dir",
	"base-url":  "dataset.base_url",
	"retries":   "dataset.retries",
	"buckets":   "analysis.buckets",
	"bins":      "analysis.buckets",
	"workers":   "analysis.workers",
	"version":   "analysis.version",
	"out":       "output.json",
	"parquet":   "output.parquet",
	"metrics":   "metrics.textfile",
}

// setDefaults registers every key so that environment variables are picked
// up by Unmarshal even when no file mentions them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("seasons", DefaultSeasons)
	v.SetDefault("db", filepath.Join(userHome(), ".xgmetrics", "runs.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("dataset.base_url", hfdata.DefaultBaseURL)
	v.SetDefault("dataset.dir", "")
	v.SetDefault("dataset.timeout", 5*time.Minute)
	v.SetDefault("dataset.retries", 3)
	v.SetDefault("analysis.buckets", 10)
	v.SetDefault("analysis.histogram_bins", 50)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.version", 3)
	v.SetDefault("output.json", "")
	v.SetDefault("output.parquet", "")
	v.SetDefault("metrics.textfile", "")
}

// Load resolves the configuration. path may be empty, in which case
// ./.xgmetrics.yaml and $HOME/.xgmetrics.yaml are tried; a missing file is not
// an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".xgmetrics")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if name == "log-json" {
				// Boolean switch for the format key.
				if f.Value.String() == "true" {
					v.Set(key, "json")
				}
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Seasons) == 0 {
		errs = append(errs, errors.New("no seasons configured"))
	}
	if c.Analysis.Buckets <= 0 {
		errs = append(errs, fmt.Errorf("analysis.buckets must be positive, got %d", c.Analysis.Buckets))
	}
	if c.Analysis.HistogramBins <= 0 {
		errs = append(errs, fmt.Errorf("analysis.histogram_bins must be positive, got %d", c.Analysis.HistogramBins))
	}
	if c.Analysis.Workers <= 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be positive, got %d", c.Analysis.Workers))
	}
	if _, err := xg.Lookup(c.Analysis.Version); err != nil {
		errs = append(errs, fmt.Errorf("analysis.version: %w", err))
	}
	if c.Dataset.Retries < 0 {
		errs = append(errs, fmt.Errorf("dataset.retries must not be negative, got %d", c.Dataset.Retries))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

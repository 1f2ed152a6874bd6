// Package config handles TOML configuration for stocktake.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	AWS     AWSConfig     `toml:"aws"`
	Output  OutputConfig  `toml:"output"`
	Filter  FilterConfig  `toml:"filter"`
	OTEL    OTELConfig    `toml:"otel"`
	Watch   WatchConfig   `toml:"watch"`
	Archive ArchiveConfig `toml:"archive"`
	Policy  PolicyConfig  `toml:"policy"`
	Log     LogConfig     `toml:"log"`
}

// AWSConfig holds AWS provider settings.
type AWSConfig struct {
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
}

// OutputConfig controls where and how inventory documents are written.
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"` // json or yaml
	CSV    bool   `toml:"csv"`    // Also write one CSV table per resource type
}

// FilterConfig holds type and tag filters.
type FilterConfig struct {
	ExcludeTypes []string          `toml:"exclude_types"`
	IncludeTags  map[string]string `toml:"include_tags"`
	ExcludeTags  map[string]string `toml:"exclude_tags"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string        `toml:"endpoint"`
	Insecure    bool          `toml:"insecure"`
	ServiceName string        `toml:"service_name"`
	Traces      TracesConfig  `toml:"traces"`
	Metrics     MetricsConfig `toml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `toml:"enabled"`
	SampleRate float64 `toml:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// WatchConfig holds settings for periodic collection.
type WatchConfig struct {
	IntervalStr string `toml:"interval"`
	Interval    time.Duration
	MetricsAddr string `toml:"metrics_addr"`
}

// ArchiveConfig holds the run archive location. An empty path disables it.
type ArchiveConfig struct {
	Path string `toml:"path"`
}

// PolicyConfig holds the tag policy location. An empty path uses the built-in policy.
type PolicyConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	_ = parseInterval(cfg)
	return cfg
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseInterval(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "stocktake"
	}
	if cfg.Watch.IntervalStr == "" {
		cfg.Watch.IntervalStr = "1h"
	}
	if cfg.Watch.MetricsAddr == "" {
		cfg.Watch.MetricsAddr = ":9464"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func parseInterval(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Watch.IntervalStr)
	if err != nil {
		return fmt.Errorf("parse interval %q: %w", cfg.Watch.IntervalStr, err)
	}
	cfg.Watch.Interval = d
	return nil
}

// ApplyOverrides copies flag and STOCKTAKE_* environment values bound in v
// over the file configuration. Keys mirror the TOML layout ("aws.region").
func ApplyOverrides(cfg *Config, v *viper.Viper) error {
	v.SetEnvPrefix("stocktake")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := v.GetString(key); s != "" {
				*dst = s
			}
		}
	}

	setString("aws.region", &cfg.AWS.Region)
	setString("aws.profile", &cfg.AWS.Profile)
	setString("output.dir", &cfg.Output.Dir)
	setString("output.format", &cfg.Output.Format)
	setString("archive.path", &cfg.Archive.Path)
	setString("policy.path", &cfg.Policy.Path)
	setString("log.level", &cfg.Log.Level)
	setString("otel.endpoint", &cfg.OTEL.Endpoint)
	setString("watch.metrics_addr", &cfg.Watch.MetricsAddr)

	if v.IsSet("output.csv") {
		cfg.Output.CSV = v.GetBool("output.csv")
	}
	if v.IsSet("policy.enabled") {
		cfg.Policy.Enabled = v.GetBool("policy.enabled")
	}
	if v.IsSet("watch.interval") {
		if s := v.GetString("watch.interval"); s != "" {
			cfg.Watch.IntervalStr = s
			if err := parseInterval(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws: region required")
	}
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("output: format must be json or yaml (got %q)", c.Output.Format)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch: interval must be positive (got %v)", c.Watch.Interval)
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	return nil
}

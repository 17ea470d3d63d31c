package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/calltimer/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. CALLTIMER_PRECISION
const EnvPrefix = "CALLTIMER"

// Config is the effective CLI configuration
type Config struct {
	Precision int           `mapstructure:"precision" yaml:"precision" json:"precision"`
	Log       LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	Bench     BenchConfig   `mapstructure:"bench" yaml:"bench" json:"bench"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json" json:"json"`
	File  string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" yaml:"environment" json:"environment"`
}

type BenchConfig struct {
	Iterations  int     `mapstructure:"iterations" yaml:"iterations" json:"iterations"`
	Concurrency int     `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	Rate        float64 `mapstructure:"rate" yaml:"rate" json:"rate"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("precision", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", ":9109")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "calltimer")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("bench.iterations", 1000)
	v.SetDefault("bench.concurrency", 4)
	v.SetDefault("bench.rate", 0)
}

// BindEnv makes CALLTIMER_* variables override file values,
// with "." in keys mapped to "_" (CALLTIMER_LOG_LEVEL).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	var errs []error
	if c.Precision < 0 || c.Precision > 9 {
		errs = append(errs, fmt.Errorf("precision must be between 0 and 9, got %d", c.Precision))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Bench.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("bench.iterations must be positive, got %d", c.Bench.Iterations))
	}
	if c.Bench.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("bench.concurrency must be positive, got %d", c.Bench.Concurrency))
	}
	if c.Bench.Rate < 0 {
		errs = append(errs, fmt.Errorf("bench.rate must not be negative, got %g", c.Bench.Rate))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// YAML renders the configuration as YAML
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

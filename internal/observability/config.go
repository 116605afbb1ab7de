package observability

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config represents the complete observability configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error, critical
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default observability configuration
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
		Tracing: TracingConfig{
			Enabled:        false,
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SampleRate:     1.0,
			ServiceName:    "runtrack",
			ServiceVersion: "dev",
		},
	}
}

// DecodeConfig overlays an "observability" section taken from a parsed
// config file onto the defaults. A nil section yields the defaults.
func DecodeConfig(section any) (Config, error) {
	config := DefaultConfig()
	if section == nil {
		return config, nil
	}

	raw, err := yaml.Marshal(section)
	if err != nil {
		return config, fmt.Errorf("failed to encode observability section: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(raw, &fileConfig); err != nil {
		return config, fmt.Errorf("failed to parse observability section: %w", err)
	}

	// Merge with defaults (only override non-zero values)
	if fileConfig.Logging.Level != "" {
		config.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Format != "" {
		config.Logging.Format = fileConfig.Logging.Format
	}

	config.Metrics.Enabled = fileConfig.Metrics.Enabled
	if fileConfig.Metrics.Addr != "" {
		config.Metrics.Addr = fileConfig.Metrics.Addr
	}

	// Tracing config - always override the Enabled flag from file
	config.Tracing.Enabled = fileConfig.Tracing.Enabled
	if fileConfig.Tracing.Exporter != "" {
		config.Tracing.Exporter = fileConfig.Tracing.Exporter
	}
	if fileConfig.Tracing.OTLPEndpoint != "" {
		config.Tracing.OTLPEndpoint = fileConfig.Tracing.OTLPEndpoint
	}
	if fileConfig.Tracing.ZipkinEndpoint != "" {
		config.Tracing.ZipkinEndpoint = fileConfig.Tracing.ZipkinEndpoint
	}
	// Note: a sample rate of exactly 0 cannot be expressed here; disable tracing instead
	if fileConfig.Tracing.SampleRate > 0 && fileConfig.Tracing.SampleRate <= 1.0 {
		config.Tracing.SampleRate = fileConfig.Tracing.SampleRate
	}
	if fileConfig.Tracing.ServiceName != "" {
		config.Tracing.ServiceName = fileConfig.Tracing.ServiceName
	}
	if fileConfig.Tracing.ServiceVersion != "" {
		config.Tracing.ServiceVersion = fileConfig.Tracing.ServiceVersion
	}

	return config, nil
}

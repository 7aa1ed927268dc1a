// =============================================================================
// eml2csv - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file. Every setting has a
// default, so the converter runs without any configuration file, and command
// line flags override whatever the file sets.
//
// EXAMPLE (eml2csv.yaml):
//   output_dir: ./uitslagen
//   format: xlsx
//   log_level: info
//   log_format: json
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the converter settings.
type Config struct {
	// OutputDir is the directory where automatically named reports are
	// written. An explicit --output path is used as given.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// Format is the report format: "csv" or "xlsx".
	// Default: "csv"
	Format string `yaml:"format"`

	// LogLevel is one of "debug", "info", "warn" or "error".
	// Default: "warn"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads the configuration file at configPath. An empty path returns the
// defaults.
//
// RETURNS:
//   - The configuration with defaults applied.
//   - An error if the file cannot be read, parsed or contains invalid values.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults sets default values for any unset option and normalises the
// case of the enumerated ones.
func applyDefaults(config *Config) {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.Format == "" {
		config.Format = FormatCSV
	}
	if config.LogLevel == "" {
		config.LogLevel = "warn"
	}
	if config.LogFormat == "" {
		config.LogFormat = LogFormatText
	}
	config.Format = strings.ToLower(config.Format)
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)
}

// Validate checks the enumerated settings. It is called by Load and again by
// the CLI after flags have been applied.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatCSV, FormatXLSX)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", c.LogFormat, LogFormatText, LogFormatJSON)
	}

	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	adapterhttp "github.com/fancydir/fancydir/pkg/adapter/http"
	"github.com/spf13/viper"
)

// Config represents the complete fancydir configuration.
//
// This structure captures all configurable aspects of the fancydir server
// including:
//   - Logging configuration
//   - Server-wide settings
//   - Volume selection and configuration (backend-specific)
//   - Listing rendering options (sizes, dates, charset, readme)
//   - Protocol adapter configurations
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (FANCYDIR_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Volume Configuration Pattern:
// Each volume backend defines its own option set. The Config struct carries
// a free-form options map and only the keys understood by the selected
// backend are used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Volume specifies the volume backend and backend-specific options
	Volume VolumeConfig `mapstructure:"volume"`

	// Listing controls how directory index pages are rendered
	Listing ListingSettings `mapstructure:"listing"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters"`

	// Metrics controls the Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// VolumeConfig specifies the volume backend configuration.
//
// The Type field determines which backend is used. Options carries the
// backend-specific keys; only those understood by the selected backend are
// consumed.
type VolumeConfig struct {
	// Type specifies which volume backend to use
	// Valid values: local, memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=local memory s3"`

	// Options contains backend-specific configuration
	//
	// local:  root (required)
	// memory: (none)
	// s3:     bucket, region (required); key_prefix, endpoint,
	//         access_key_id, secret_access_key, max_retries (optional)
	Options map[string]any `mapstructure:"options"`
}

// ListingSettings controls directory index generation.
type ListingSettings struct {
	// Enabled turns automatic index pages on. When false, directory
	// requests are refused.
	Enabled bool `mapstructure:"enabled"`

	// LocalTime renders entry dates in the server's local time zone
	// instead of UTC.
	LocalTime bool `mapstructure:"local_time"`

	// ExactSize renders file sizes as exact byte counts instead of
	// scaled K/M/G values. Defaults to true.
	ExactSize *bool `mapstructure:"exact_size"`

	// Charset is the charset advertised in the Content-Type of generated
	// pages. Name column widths count codepoints when it is utf-8.
	Charset string `mapstructure:"charset" validate:"required"`

	// IncludeMode selects the header/footer insert strategy
	// Valid values: static, cached
	IncludeMode string `mapstructure:"include_mode" validate:"required,oneof=static cached"`

	// Readme configures the optional per-directory readme insert
	Readme ReadmeConfig `mapstructure:"readme"`
}

// ReadmeConfig configures the optional readme insert.
type ReadmeConfig struct {
	// File is the readme filename looked up in each listed directory.
	// Empty disables readme handling.
	File string `mapstructure:"file"`

	// Placement lists where the readme is inserted
	// Valid values: top, bottom (both may be given)
	Placement []string `mapstructure:"placement" validate:"dive,oneof=top bottom"`

	// Presentation selects how the readme is rendered
	// Valid values: pre, asis, div, iframe (only iframe renders; the
	// others are accepted and skipped with a warning)
	Presentation string `mapstructure:"presentation" validate:"required,oneof=pre asis div iframe"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// HTTP contains HTTP adapter configuration.
	// Uses the adapterhttp.HTTPConfig type directly to avoid duplication.
	HTTP adapterhttp.HTTPConfig `mapstructure:"http"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the metrics server on
	Enabled bool `mapstructure:"enabled"`

	// Port to serve metrics on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FANCYDIR_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use FANCYDIR_ prefix and underscores
	// Example: FANCYDIR_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("FANCYDIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/fancydir/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		// Other errors are problems
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fancydir")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "fancydir")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

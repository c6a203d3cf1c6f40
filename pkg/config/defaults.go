package config

import (
	"strings"
	"time"

	adapterhttp "github.com/fancydir/fancydir/pkg/adapter/http"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Booleans that default to true use pointer fields so an explicit
//     false survives
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyVolumeDefaults(&cfg.Volume)
	applyListingDefaults(&cfg.Listing)
	applyAdaptersDefaults(&cfg.Adapters)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyVolumeDefaults sets volume backend defaults.
func applyVolumeDefaults(cfg *VolumeConfig) {
	if cfg.Type == "" {
		cfg.Type = "local"
	}

	// Initialize map if nil
	if cfg.Options == nil {
		cfg.Options = make(map[string]any)
	}

	if cfg.Type == "local" {
		if _, ok := cfg.Options["root"]; !ok {
			cfg.Options["root"] = "/srv/www"
		}
	}
}

// applyListingDefaults sets listing defaults.
//
// The defaults mirror the historical directive defaults: listing off, UTC
// dates, exact sizes on, no readme file, readme options top+pre, static
// includes.
func applyListingDefaults(cfg *ListingSettings) {
	// Enabled defaults to false
	// LocalTime defaults to false (UTC)

	if cfg.ExactSize == nil {
		exact := true
		cfg.ExactSize = &exact
	}

	if cfg.Charset == "" {
		cfg.Charset = "utf-8"
	}

	if cfg.IncludeMode == "" {
		cfg.IncludeMode = "static"
	}

	// Readme.File defaults to empty (no readme)

	if len(cfg.Readme.Placement) == 0 {
		cfg.Readme.Placement = []string{"top"}
	}

	if cfg.Readme.Presentation == "" {
		cfg.Readme.Presentation = "pre"
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the HTTP adapter by default if no adapters are configured.
	// This ensures that a freshly loaded config (with no config file) will
	// have at least one adapter enabled and pass validation. Users can
	// explicitly set enabled: false in their config to disable it.
	if !cfg.HTTP.Enabled && cfg.HTTP.Port == 0 {
		cfg.HTTP.Enabled = true
	}

	applyHTTPDefaults(&cfg.HTTP)
}

// applyHTTPDefaults sets HTTP adapter defaults.
func applyHTTPDefaults(cfg *adapterhttp.HTTPConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}

	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false

	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Volume: VolumeConfig{
			Options: make(map[string]any),
		},
		Listing: ListingSettings{
			Enabled: true, // Listing on for the generated sample config
		},
		Adapters: AdaptersConfig{
			HTTP: adapterhttp.HTTPConfig{
				Enabled: true, // HTTP adapter enabled by default
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}

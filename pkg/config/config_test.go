package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	// Write minimal config
	configPath := writeConfigFile(t, "config.yaml", `
logging:
  level: "INFO"

volume:
  type: "local"
  options:
    root: "/srv/www"

adapters:
  http:
    enabled: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Adapters.HTTP.Port != 8080 {
		t.Errorf("Expected default HTTP port 8080, got %d", cfg.Adapters.HTTP.Port)
	}
	if cfg.Listing.Charset != "utf-8" {
		t.Errorf("Expected default charset 'utf-8', got %q", cfg.Listing.Charset)
	}
	if cfg.Listing.ExactSize == nil || !*cfg.Listing.ExactSize {
		t.Error("Expected exact_size to default to true")
	}
	if cfg.Listing.Enabled {
		t.Error("Expected listing to be disabled by default")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a temporary directory with a non-existent config file path
	// This ensures we don't load the user's config from ~/.config/fancydir/
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	// Verify defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Volume.Type != "local" {
		t.Errorf("Expected default volume type 'local', got %q", cfg.Volume.Type)
	}
	if root, _ := cfg.Volume.Options["root"].(string); root != "/srv/www" {
		t.Errorf("Expected default volume root '/srv/www', got %q", root)
	}
	if !cfg.Adapters.HTTP.Enabled {
		t.Error("Expected HTTP adapter to be enabled by default")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfigFile(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	// Should return error
	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfigFile(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[volume]
type = "memory"

[listing]
enabled = true
exact_size = false

[adapters.http]
enabled = true
port = 8888
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Volume.Type != "memory" {
		t.Errorf("Expected volume type 'memory', got %q", cfg.Volume.Type)
	}
	if !cfg.Listing.Enabled {
		t.Error("Expected listing enabled")
	}
	if cfg.Listing.ExactSize == nil || *cfg.Listing.ExactSize {
		t.Error("Expected explicit exact_size false to survive defaulting")
	}
	if cfg.Adapters.HTTP.Port != 8888 {
		t.Errorf("Expected HTTP port 8888, got %d", cfg.Adapters.HTTP.Port)
	}
}

func TestLoad_FullListingSection(t *testing.T) {
	// Build the fixture from a map so the file mirrors what a user would
	// write, not our struct layout.
	fixture := map[string]any{
		"listing": map[string]any{
			"enabled":      true,
			"local_time":   true,
			"exact_size":   false,
			"charset":      "iso-8859-1",
			"include_mode": "cached",
			"readme": map[string]any{
				"file":         "README.html",
				"placement":    []string{"top", "bottom"},
				"presentation": "iframe",
			},
		},
		"volume": map[string]any{
			"type":    "local",
			"options": map[string]any{"root": "/data"},
		},
	}
	data, err := yaml.Marshal(fixture)
	if err != nil {
		t.Fatalf("Failed to marshal fixture: %v", err)
	}
	configPath := writeConfigFile(t, "config.yaml", string(data))

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Listing.LocalTime {
		t.Error("Expected local_time true")
	}
	if cfg.Listing.Charset != "iso-8859-1" {
		t.Errorf("Expected charset 'iso-8859-1', got %q", cfg.Listing.Charset)
	}
	if cfg.Listing.IncludeMode != "cached" {
		t.Errorf("Expected include_mode 'cached', got %q", cfg.Listing.IncludeMode)
	}
	if cfg.Listing.Readme.File != "README.html" {
		t.Errorf("Expected readme file 'README.html', got %q", cfg.Listing.Readme.File)
	}
	if len(cfg.Listing.Readme.Placement) != 2 {
		t.Errorf("Expected two placements, got %v", cfg.Listing.Readme.Placement)
	}
	if cfg.Listing.Readme.Presentation != "iframe" {
		t.Errorf("Expected presentation 'iframe', got %q", cfg.Listing.Readme.Presentation)
	}
	if root, _ := cfg.Volume.Options["root"].(string); root != "/data" {
		t.Errorf("Expected volume root '/data', got %q", root)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfigFile(t, "config.yaml", `
logging:
  level: "INFO"
volume:
  type: "memory"
`)

	t.Setenv("FANCYDIR_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfigFile(t, "config.yaml", `
listing:
  include_mode: "sometimes"
volume:
  type: "memory"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for invalid include_mode, got nil")
	}
}

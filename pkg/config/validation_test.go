package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidVolumeType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Volume.Type = "postgres"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown volume type")
	}
}

func TestValidate_LocalVolumeRequiresRoot(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Volume.Type = "local"
	cfg.Volume.Options = map[string]any{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for local volume without root")
	}
	if !strings.Contains(err.Error(), "root") {
		t.Errorf("Expected error to name the missing root option, got: %v", err)
	}
}

func TestValidate_S3VolumeRequiresBucketAndRegion(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Volume.Type = "s3"
	cfg.Volume.Options = map[string]any{"bucket": "files"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for s3 volume without region")
	}
	if !strings.Contains(err.Error(), "region") {
		t.Errorf("Expected error to name the missing region option, got: %v", err)
	}
}

func TestValidate_InvalidIncludeMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Listing.IncludeMode = "lazy"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid include mode")
	}
}

func TestValidate_InvalidReadmePresentation(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Listing.Readme.Presentation = "frame"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid readme presentation")
	}
}

func TestValidate_InvalidReadmePlacement(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Listing.Readme.Placement = []string{"top", "middle"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid readme placement")
	}
}

func TestValidate_DuplicateReadmePlacement(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Listing.Readme.Placement = []string{"top", "top"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate readme placement")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected 'duplicate' in error, got: %v", err)
	}
}

func TestValidate_NoAdapterEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.HTTP.Enabled = false

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error when no adapter is enabled")
	}
	if !strings.Contains(err.Error(), "adapter") {
		t.Errorf("Expected 'adapter' in error, got: %v", err)
	}
}

func TestValidate_InvalidHTTPPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.HTTP.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for out-of-range port")
	}
}

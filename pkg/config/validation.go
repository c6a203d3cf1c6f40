package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Validate at least one adapter is enabled
	if !cfg.Adapters.HTTP.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	// Validate backend-specific required options
	switch cfg.Volume.Type {
	case "local":
		root, _ := cfg.Volume.Options["root"].(string)
		if root == "" {
			return fmt.Errorf("volume: local volume requires options.root")
		}
	case "s3":
		bucket, _ := cfg.Volume.Options["bucket"].(string)
		if bucket == "" {
			return fmt.Errorf("volume: s3 volume requires options.bucket")
		}
		region, _ := cfg.Volume.Options["region"].(string)
		if region == "" {
			return fmt.Errorf("volume: s3 volume requires options.region")
		}
	}

	// Validate readme placements are unique
	seen := make(map[string]bool)
	for i, placement := range cfg.Listing.Readme.Placement {
		p := strings.ToLower(placement)
		if seen[p] {
			return fmt.Errorf("listing.readme.placement[%d]: duplicate placement %q", i, placement)
		}
		seen[p] = true
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}

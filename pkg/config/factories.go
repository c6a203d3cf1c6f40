package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/fancydir/fancydir/internal/logger"
	"github.com/fancydir/fancydir/pkg/listing"
	"github.com/fancydir/fancydir/pkg/vfs"
	"github.com/fancydir/fancydir/pkg/vfs/local"
	"github.com/fancydir/fancydir/pkg/vfs/memory"
	vfsS3 "github.com/fancydir/fancydir/pkg/vfs/s3"
)

// CreateVolume creates a volume based on configuration.
//
// This factory function uses the Type field to determine which backend to
// create, then decodes the backend-specific configuration from the options
// map and passes it to the backend's constructor.
//
// Supported types:
//   - "local": Uses pkg/vfs/local (local filesystem, rooted)
//   - "memory": Uses pkg/vfs/memory (in-memory tree, ephemeral)
//   - "s3": Uses pkg/vfs/s3 (Amazon S3 or compatible object storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Volume configuration
//
// Returns:
//   - vfs.Volume: Initialized volume
//   - error: Configuration or initialization error
func CreateVolume(ctx context.Context, cfg *VolumeConfig) (vfs.Volume, error) {
	switch cfg.Type {
	case "local":
		return createLocalVolume(ctx, cfg.Options)
	case "memory":
		return memory.NewMemoryVolume(ctx)
	case "s3":
		return createS3Volume(ctx, cfg.Options)
	default:
		return nil, fmt.Errorf("unknown volume type: %q (supported: local, memory, s3)", cfg.Type)
	}
}

// createLocalVolume creates a local-filesystem volume.
func createLocalVolume(ctx context.Context, options map[string]any) (vfs.Volume, error) {
	// Define the configuration struct for the local volume
	type LocalVolumeConfig struct {
		Root string `mapstructure:"root"`
	}

	// Decode the options into the config struct
	var volCfg LocalVolumeConfig
	if err := mapstructure.Decode(options, &volCfg); err != nil {
		return nil, fmt.Errorf("failed to decode local volume config: %w", err)
	}

	// Validate required fields
	if volCfg.Root == "" {
		return nil, fmt.Errorf("local volume: root is required")
	}

	// Create the volume
	vol, err := local.NewLocalVolume(ctx, volCfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create local volume: %w", err)
	}

	return vol, nil
}

// createS3Volume creates an S3-backed volume.
func createS3Volume(ctx context.Context, options map[string]any) (vfs.Volume, error) {
	// Define the configuration struct for the S3 volume
	type S3VolumeOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var volCfg S3VolumeOptions
	if err := mapstructure.Decode(options, &volCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 volume config: %w", err)
	}

	// Validate required fields
	if volCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 volume: bucket is required")
	}

	if volCfg.Region == "" {
		return nil, fmt.Errorf("S3 volume: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(volCfg.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if volCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               volCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if volCfg.AccessKeyID != "" && volCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			volCfg.AccessKeyID,
			volCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	// Default to 10 retries if not specified (increased from AWS default of 3)
	maxRetries := volCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10 // Default: 10 attempts
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if volCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Volume
	// ========================================================================

	vol, err := vfsS3.NewS3Volume(ctx, vfsS3.S3VolumeConfig{
		Client:    client,
		Bucket:    volCfg.Bucket,
		KeyPrefix: volCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 volume: %w", err)
	}

	logger.Info("S3 volume initialized: bucket=%s, region=%s, prefix=%s",
		volCfg.Bucket, volCfg.Region, volCfg.KeyPrefix)

	return vol, nil
}

// CreateListingConfig converts the listing settings into the engine's
// configuration value.
//
// The returned value is immutable for the lifetime of the server and shared
// read-only across all requests.
//
// Parameters:
//   - cfg: Validated listing settings
//
// Returns:
//   - listing.Config: Engine configuration
//   - error: Unknown readme option or include mode (only reachable with an
//     unvalidated config)
func CreateListingConfig(cfg *ListingSettings) (listing.Config, error) {
	options := make([]string, 0, len(cfg.Readme.Placement)+1)
	options = append(options, cfg.Readme.Placement...)
	options = append(options, cfg.Readme.Presentation)

	flags, err := listing.ParseReadmeOptions(options)
	if err != nil {
		return listing.Config{}, fmt.Errorf("invalid readme options: %w", err)
	}

	mode, err := listing.ParseIncludeMode(cfg.IncludeMode)
	if err != nil {
		return listing.Config{}, fmt.Errorf("invalid include mode: %w", err)
	}

	exact := true
	if cfg.ExactSize != nil {
		exact = *cfg.ExactSize
	}

	return listing.Config{
		Localtime:   cfg.LocalTime,
		ExactSize:   exact,
		Readme:      cfg.Readme.File,
		ReadmeFlags: flags,
		IncludeMode: mode,
	}, nil
}

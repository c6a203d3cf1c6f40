package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fancydir/fancydir/internal/logger"
	adapterhttp "github.com/fancydir/fancydir/pkg/adapter/http"
	"github.com/fancydir/fancydir/pkg/config"
	"github.com/fancydir/fancydir/pkg/metrics"
	"github.com/fancydir/fancydir/pkg/server"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fancydir %s\n", version)
		return
	}

	// Load a .env file if one is present; its variables feed the
	// FANCYDIR_* environment overrides.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flags win over file and environment values
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	logger.Info("fancydir %s starting", version)
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Cancelled on SIGINT/SIGTERM to drive graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics registry must exist before any component builds its
	// collectors, otherwise they silently fall back to no-ops.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	vol, err := config.CreateVolume(ctx, &cfg.Volume)
	if err != nil {
		logger.Error("Failed to create volume: %v", err)
		os.Exit(1)
	}
	logger.Info("Volume initialized: type=%s", cfg.Volume.Type)

	listingCfg, err := config.CreateListingConfig(&cfg.Listing)
	if err != nil {
		logger.Error("Failed to build listing configuration: %v", err)
		os.Exit(1)
	}
	logger.Info("Listing enabled: %v (charset=%s, exact_size=%v, local_time=%v)",
		cfg.Listing.Enabled, cfg.Listing.Charset,
		listingCfg.ExactSize, listingCfg.Localtime)
	if listingCfg.Readme != "" {
		logger.Info("Readme insert configured: file=%s flags=%#x",
			listingCfg.Readme, uint(listingCfg.ReadmeFlags))
	}

	srv := server.New(vol, cfg.Server.ShutdownTimeout)

	if cfg.Adapters.HTTP.Enabled {
		httpAdapter := adapterhttp.New(cfg.Adapters.HTTP, adapterhttp.ListingOptions{
			Enabled: cfg.Listing.Enabled,
			Charset: cfg.Listing.Charset,
			Config:  listingCfg,
		})
		if err := srv.AddAdapter(httpAdapter); err != nil {
			logger.Error("Failed to register HTTP adapter: %v", err)
			os.Exit(1)
		}
	}

	// The metrics server runs beside the protocol adapters and shares
	// their lifecycle.
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}

	logger.Info("fancydir stopped")
}

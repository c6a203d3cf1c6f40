// Package http serves a volume over HTTP: files are streamed from the
// volume, directories render as generated index pages.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fancydir/fancydir/internal/logger"
	"github.com/fancydir/fancydir/pkg/listing"
	"github.com/fancydir/fancydir/pkg/metrics"
	"github.com/fancydir/fancydir/pkg/vfs"
)

// HTTPConfig holds configuration parameters for the HTTP adapter.
//
// Default values (applied by the configuration layer):
//   - Host: 0.0.0.0
//   - Port: 8080
//   - ReadTimeout: 30s
//   - WriteTimeout: 30s
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
type HTTPConfig struct {
	// Enabled turns the HTTP adapter on
	Enabled bool `mapstructure:"enabled"`

	// Host is the address to bind to
	Host string `mapstructure:"host"`

	// Port is the TCP port to listen on. 0 picks an ephemeral port.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`

	// ReadTimeout bounds reading an entire request, including the body
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout bounds writing the response
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout bounds keep-alive waits between requests
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight requests
	// during graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ListingOptions carries the listing engine settings the adapter serves
// directory requests with.
type ListingOptions struct {
	// Enabled turns automatic index pages on. When false, directory
	// requests are refused with 403.
	Enabled bool

	// Charset is advertised in the Content-Type of generated pages. When
	// it names UTF-8, name column widths count codepoints.
	Charset string

	// Config is the engine configuration, shared read-only across all
	// requests.
	Config listing.Config
}

// HTTPAdapter implements the adapter.Adapter interface for HTTP.
//
// The adapter resolves each request path against the shared volume: files
// are streamed out with a type derived from their extension, directories
// run the listing engine and send the rendered page. Listing failures map
// onto HTTP statuses (NotFound 404, PermissionDenied 403, IOFailure 500).
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. In-flight requests drain, bounded by ShutdownTimeout
//
// Thread safety:
// All methods are safe for concurrent use. The shutdown mechanism uses
// sync.Once so Stop() is idempotent.
type HTTPAdapter struct {
	// config holds the adapter configuration (bind address, timeouts)
	config HTTPConfig

	// options holds the listing engine settings
	options ListingOptions

	// utf8 caches whether options.Charset names UTF-8
	utf8 bool

	// vol is the shared volume, injected via SetVolume before Serve
	vol vfs.Volume

	// generator renders directory index pages. Built in Serve, after the
	// volume is injected.
	generator *listing.Generator

	// metrics provides optional Prometheus metrics collection
	metrics metrics.HTTPMetrics

	// server is the underlying HTTP server, created by Serve
	server *http.Server

	// mu protects server and port against concurrent Serve/Stop/Port calls
	mu sync.Mutex

	// port is the actual listening port, resolved once the listener is up
	port int

	// shutdownOnce ensures shutdown is only initiated once
	shutdownOnce sync.Once
}

// New creates an HTTP adapter with the given configuration.
//
// The adapter is created without a volume; the server injects one via
// SetVolume before calling Serve.
//
// Parameters:
//   - config: Adapter configuration (bind address, timeouts)
//   - options: Listing engine settings
func New(config HTTPConfig, options ListingOptions) *HTTPAdapter {
	return &HTTPAdapter{
		config:  config,
		options: options,
		utf8:    isUTF8(options.Charset),
		metrics: metrics.NewHTTPMetrics(),
		port:    config.Port,
	}
}

// isUTF8 reports whether the configured charset names UTF-8.
func isUTF8(charset string) bool {
	c := strings.ToLower(charset)
	return c == "utf-8" || c == "utf8"
}

// SetVolume injects the shared volume and builds the listing generator
// over it. Called once before Serve.
func (a *HTTPAdapter) SetVolume(vol vfs.Volume) {
	a.vol = vol
	a.generator = listing.New(vol, a.options.Config, metrics.NewListingMetrics())
}

// Serve starts the HTTP server and blocks until the context is cancelled
// or the server fails.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the listener cannot be created or the server fails
func (a *HTTPAdapter) Serve(ctx context.Context) error {
	if a.vol == nil {
		return fmt.Errorf("http adapter: no volume injected; call SetVolume before Serve")
	}

	addr := fmt.Sprintf("%s:%d", a.config.Host, a.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http adapter: failed to listen on %s: %w", addr, err)
	}

	a.mu.Lock()
	a.port = listener.Addr().(*net.TCPAddr).Port
	a.server = &http.Server{
		Handler:      a,
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
		IdleTimeout:  a.config.IdleTimeout,
	}
	server := a.server
	a.mu.Unlock()

	logger.Info("HTTP adapter listening on %s", listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("HTTP adapter shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
		if err := a.Stop(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errChan:
		return fmt.Errorf("http adapter failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the HTTP server.
//
// Safe to call multiple times and concurrently with Serve.
func (a *HTTPAdapter) Stop(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		server := a.server
		a.mu.Unlock()

		if server == nil {
			return
		}

		if err := server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http adapter shutdown error: %w", err)
			logger.Error("HTTP adapter shutdown error: %v", err)
		} else {
			logger.Info("HTTP adapter stopped gracefully")
		}
	})
	return shutdownErr
}

// Protocol returns "HTTP".
func (a *HTTPAdapter) Protocol() string {
	return "HTTP"
}

// Port returns the TCP port the adapter is listening on. Before Serve it
// returns the configured port, which may be 0 for ephemeral allocation.
func (a *HTTPAdapter) Port() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port
}

// Package server orchestrates the protocol adapters that serve a shared
// volume.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fancydir/fancydir/internal/logger"
	"github.com/fancydir/fancydir/pkg/adapter"
	"github.com/fancydir/fancydir/pkg/vfs"
)

// Server manages the lifecycle of multiple protocol adapters that share one
// volume.
//
// Architecture:
// Server orchestrates protocol frontends (HTTP today, others tomorrow)
// represented as Adapter implementations. All adapters share the same
// volume, providing a unified view of the tree across protocols.
//
// Lifecycle:
//  1. Creation: New() with the volume
//  2. Registration: AddAdapter() for each protocol
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: Context cancellation triggers graceful shutdown of all
//     adapters
//
// Thread safety:
// Server is safe for concurrent use. AddAdapter() may be called
// concurrently with other methods. Serve() must only be called once per
// server instance.
//
// Example usage:
//
//	srv := server.New(vol, 30*time.Second)
//	srv.AddAdapter(adapterhttp.New(httpConfig, listingOptions))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
type Server struct {
	// vol is the shared volume for all adapters
	vol vfs.Volume

	// stopTimeout bounds the graceful shutdown of all adapters
	stopTimeout time.Duration

	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag
	mu sync.Mutex

	// served indicates whether Serve() has been called
	served bool
}

// New creates a new Server around the provided volume.
//
// The volume is shared across all adapters added to this server, ensuring
// that requests see the same tree regardless of protocol.
//
// Parameters:
//   - vol: Volume all adapters serve from (required)
//   - stopTimeout: Maximum time to wait for adapters during shutdown
//
// Returns a configured but not yet started Server. Call AddAdapter() to
// register protocols, then Serve() to start.
//
// Panics if the volume is nil (indicates programmer error).
func New(vol vfs.Volume, stopTimeout time.Duration) *Server {
	if vol == nil {
		panic("volume cannot be nil")
	}
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}

	return &Server{
		vol:         vol,
		stopTimeout: stopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a new protocol adapter with the server.
//
// This method injects the shared volume into the adapter and adds it to
// the list of adapters that will be started when Serve() is called.
//
// Each adapter must implement a different protocol and listen on a
// different port. Duplicate protocols or port conflicts return an error.
//
// Parameters:
//   - a: The protocol adapter to register (must not be nil)
//
// Returns:
//   - error if the adapter conflicts with an existing adapter
//
// Panics if:
//   - adapter is nil (programmer error)
//   - Serve() has already been called (server is running)
//
// Thread safety:
// Safe to call concurrently from multiple goroutines before Serve().
func (s *Server) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter",
				port, existing.Protocol())
		}
	}

	// Inject the shared volume
	a.SetVolume(s.vol)

	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)

	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// Shutdown behavior:
// When the context is cancelled or an adapter fails:
//   - All adapters receive Stop() calls in reverse registration order
//   - Each adapter has up to stopTimeout to shut down
//   - Serve() waits for all adapters to complete before returning
//
// Parameters:
//   - ctx: Controls server lifecycle. Cancellation triggers graceful
//     shutdown.
//
// Returns:
//   - context.Canceled if shutdown was triggered by context cancellation
//   - error if startup failed or an adapter encountered an error
//
// Thread safety:
// Serve() must only be called once. A second call panics.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		panic("Serve() has already been called on this server instance")
	}
	s.served = true

	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting fancydir server with %d adapter(s)", len(adapters))

	// Buffered so adapter goroutines never block reporting failures
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup

	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()

			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(ctx); err != nil {
				// context.Canceled is expected during shutdown
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
			} else {
				logger.Info("%s adapter stopped", protocol)
			}
		}(adp)
	}

	// Wait for either context cancellation or adapter error
	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("Server stopped gracefully")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error for better
// error reporting.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters initiates graceful shutdown of all adapters in reverse
// registration order.
//
// Each adapter receives a Stop() call with a shared timeout context. Errors
// are logged but do not stop the remaining adapters from being stopped.
func (s *Server) stopAllAdapters(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())

		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		}
	}
}

// Adapters returns a snapshot of currently registered adapters.
//
// The returned slice is a copy and safe to iterate without holding locks.
func (s *Server) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}

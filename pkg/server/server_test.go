package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fancydir/fancydir/pkg/vfs"
	"github.com/fancydir/fancydir/pkg/vfs/memory"
)

// mockAdapter is a controllable adapter for lifecycle tests.
type mockAdapter struct {
	protocol string
	port     int

	serveErr error // returned by Serve after release fires

	volumeSet   atomic.Bool
	stopped     atomic.Bool
	release     chan struct{}
	releaseOnce sync.Once
}

func newMockAdapter(protocol string, port int) *mockAdapter {
	return &mockAdapter{
		protocol: protocol,
		port:     port,
		release:  make(chan struct{}),
	}
}

// fail unblocks Serve so it returns serveErr.
func (m *mockAdapter) fail() {
	m.releaseOnce.Do(func() { close(m.release) })
}

func (m *mockAdapter) Serve(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.release:
		return m.serveErr
	}
}

func (m *mockAdapter) SetVolume(vfs.Volume) { m.volumeSet.Store(true) }

func (m *mockAdapter) Stop(context.Context) error {
	m.stopped.Store(true)
	m.releaseOnce.Do(func() { close(m.release) })
	return nil
}

func (m *mockAdapter) Protocol() string { return m.protocol }
func (m *mockAdapter) Port() int        { return m.port }

func testVolume(t *testing.T) vfs.Volume {
	t.Helper()
	vol, err := memory.NewMemoryVolume(context.Background())
	require.NoError(t, err)
	return vol
}

func TestNew_NilVolumePanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, time.Second)
	})
}

func TestAddAdapter_InjectsVolume(t *testing.T) {
	srv := New(testVolume(t), time.Second)
	a := newMockAdapter("HTTP", 8080)

	require.NoError(t, srv.AddAdapter(a))

	assert.True(t, a.volumeSet.Load())
	assert.Len(t, srv.Adapters(), 1)
}

func TestAddAdapter_DuplicateProtocol(t *testing.T) {
	srv := New(testVolume(t), time.Second)

	require.NoError(t, srv.AddAdapter(newMockAdapter("HTTP", 8080)))

	err := srv.AddAdapter(newMockAdapter("HTTP", 8081))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP")
}

func TestAddAdapter_PortConflict(t *testing.T) {
	srv := New(testVolume(t), time.Second)

	require.NoError(t, srv.AddAdapter(newMockAdapter("HTTP", 8080)))

	err := srv.AddAdapter(newMockAdapter("FTP", 8080))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "8080")
}

func TestAddAdapter_EphemeralPortsNeverConflict(t *testing.T) {
	srv := New(testVolume(t), time.Second)

	require.NoError(t, srv.AddAdapter(newMockAdapter("HTTP", 0)))
	require.NoError(t, srv.AddAdapter(newMockAdapter("FTP", 0)))
}

func TestServe_NoAdapters(t *testing.T) {
	srv := New(testVolume(t), time.Second)

	err := srv.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no adapters")
}

func TestServe_ContextCancellation(t *testing.T) {
	srv := New(testVolume(t), time.Second)
	a := newMockAdapter("HTTP", 8080)
	require.NoError(t, srv.AddAdapter(a))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.True(t, a.stopped.Load())
}

func TestServe_AdapterFailureStopsAll(t *testing.T) {
	srv := New(testVolume(t), time.Second)

	failing := newMockAdapter("HTTP", 8080)
	failing.serveErr = errors.New("listener exploded")
	healthy := newMockAdapter("FTP", 2121)

	require.NoError(t, srv.AddAdapter(failing))
	require.NoError(t, srv.AddAdapter(healthy))

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background())
	}()

	failing.fail()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP")
		assert.Contains(t, err.Error(), "listener exploded")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after adapter failure")
	}
	assert.True(t, healthy.stopped.Load())
}

func TestServe_CalledTwicePanics(t *testing.T) {
	srv := New(testVolume(t), time.Second)
	a := newMockAdapter("HTTP", 8080)
	require.NoError(t, srv.AddAdapter(a))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = srv.Serve(ctx)

	assert.Panics(t, func() {
		_ = srv.Serve(context.Background())
	})
}

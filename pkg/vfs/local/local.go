package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fancydir/fancydir/pkg/vfs"
)

// LocalVolume implements vfs.Volume on top of a local filesystem directory.
//
// Volume paths are resolved against a fixed root directory. The volume never
// follows a path above its root: incoming paths are cleaned before joining,
// so "/a/../../etc" resolves to "/etc" inside the volume, not on the host.
//
// Directory iteration returns bare names without attributes. Readdir on the
// local filesystem does not yield sizes or times, so attaching them here
// would cost one stat per entry even for callers that discard hidden
// entries. Callers stat the entries they keep.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level. A
// DirHandle returned by OpenDir is owned by a single goroutine.
type LocalVolume struct {
	root string
}

// NewLocalVolume creates a volume rooted at the given directory.
//
// The root must already exist and be a directory. Unlike a writable store,
// a listing volume never creates its root.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - root: Host directory to serve as the volume root
//
// Returns:
//   - *LocalVolume: Initialized volume
//   - error: Returns error if the root is missing, not a directory, or the
//     context is cancelled
func NewLocalVolume(ctx context.Context, root string) (*LocalVolume, error) {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Verify the root exists and is a directory
	// ========================================================================

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %q: %w", abs, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}

	return &LocalVolume{root: abs}, nil
}

// Root returns the host directory the volume is rooted at.
func (v *LocalVolume) Root() string {
	return v.root
}

// resolve maps a volume path onto the host filesystem.
//
// The path is cleaned first, so ".." segments cannot climb above the volume
// root. Only absolute slash paths are accepted.
func (v *LocalVolume) resolve(p string) (string, error) {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) >= 0 {
		return "", fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}
	clean := path.Clean(p)
	if clean == "/" {
		return v.root, nil
	}
	return filepath.Join(v.root, filepath.FromSlash(clean[1:])), nil
}

// classify rewraps a filesystem error so callers can test it against the fs
// sentinel errors regardless of the underlying errno.
//
// ENOTDIR and ENAMETOOLONG collapse into fs.ErrNotExist: a path with a file
// where a directory component should be, or a name the filesystem cannot
// represent, names nothing that exists.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG):
		return fmt.Errorf("%v: %w", err, fs.ErrNotExist)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%v: %w", err, fs.ErrPermission)
	default:
		return err
	}
}

// ============================================================================
// Volume Interface Implementation
// ============================================================================

// OpenDir opens the directory at the given volume path for iteration.
//
// Context Cancellation:
// The context is checked before opening. Once the handle is returned, each
// ReadBatch call checks the context again.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - p: Volume path of the directory
//
// Returns:
//   - vfs.DirHandle: Iterator over the directory (must be closed by caller)
//   - error: fs.ErrNotExist if the path is missing or not a directory,
//     fs.ErrPermission if access is denied, or an I/O failure
func (v *LocalVolume) OpenDir(ctx context.Context, p string) (vfs.DirHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hostPath, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return nil, classify(err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, classify(err)
	}
	if !fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: not a directory: %w", hostPath, fs.ErrNotExist)
	}

	return &localDirHandle{f: f}, nil
}

// Stat returns the attributes of the entry at the given volume path,
// following symlinks.
func (v *LocalVolume) Stat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hostPath, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(hostPath)
	if err != nil {
		return nil, classify(err)
	}

	return vfs.InfoFromFileInfo(fi), nil
}

// Lstat returns the attributes of the entry at the given volume path without
// following symlinks. A dangling symlink stats fine here while Stat on the
// same path fails with fs.ErrNotExist.
func (v *LocalVolume) Lstat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hostPath, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	fi, err := os.Lstat(hostPath)
	if err != nil {
		return nil, classify(err)
	}

	return vfs.InfoFromFileInfo(fi), nil
}

// Open opens the file at the given volume path for reading.
//
// The caller is responsible for closing the returned ReadCloser.
func (v *LocalVolume) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hostPath, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return nil, classify(err)
	}

	return f, nil
}

// ============================================================================
// Directory Handle
// ============================================================================

// localDirHandle iterates a directory via Readdirnames.
type localDirHandle struct {
	f      *os.File
	closed bool
}

// ReadBatch returns up to n entry names in readdir order.
//
// Entries carry no attributes; callers stat the names they keep.
func (h *localDirHandle) ReadBatch(ctx context.Context, n int) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.closed {
		return nil, vfs.ErrClosed
	}

	names, err := h.f.Readdirnames(n)
	if err != nil {
		if errors.Is(err, io.EOF) && len(names) == 0 {
			return nil, io.EOF
		}
		if !errors.Is(err, io.EOF) {
			return nil, classify(err)
		}
	}

	entries := make([]vfs.DirEntry, len(names))
	for i, name := range names {
		entries[i] = vfs.DirEntry{Name: name}
	}

	return entries, nil
}

// Close releases the directory handle.
func (h *localDirHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.f.Close()
}

// Package vfs defines the volume abstraction the listing engine walks.
//
// A Volume exposes a read-only, rooted view of a directory tree. The engine
// only needs four operations: open a directory for iteration, stat an entry
// (following symlinks), lstat an entry (not following symlinks), and open a
// file for reading. Implementations exist for the local filesystem, for
// in-memory trees (testing and ephemeral serving), and for S3-compatible
// object storage.
package vfs

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// EntryInfo carries the three attributes the listing engine renders for a
// directory entry.
//
// Backends that learn these attributes during directory iteration (memory,
// S3) attach an EntryInfo to each DirEntry up front. Backends that would pay
// an extra syscall per entry (local filesystem readdir) leave it nil and let
// the caller stat on demand.
type EntryInfo struct {
	// Dir reports whether the entry is a directory.
	Dir bool

	// Size is the entry size in bytes. Meaningless for directories.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time
}

// DirEntry is a single name returned by directory iteration.
type DirEntry struct {
	// Name is the bare entry name, without any path separators.
	Name string

	// Info is the entry's attributes if the backend resolved them during
	// iteration, or nil if the caller must Stat the entry itself.
	Info *EntryInfo
}

// DirHandle iterates over the entries of an open directory.
//
// Thread Safety:
// A DirHandle is owned by a single goroutine. Implementations are not
// required to synchronize concurrent ReadBatch calls on the same handle.
type DirHandle interface {
	// ReadBatch returns up to n directory entries, in backend order.
	//
	// Iteration order is unspecified; callers that need a stable order must
	// sort. The special names "." and ".." are never returned.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - n: Maximum number of entries to return (must be > 0)
	//
	// Returns:
	//   - []DirEntry: Next batch of entries, possibly shorter than n
	//   - error: io.EOF when the directory is exhausted, or a read failure
	ReadBatch(ctx context.Context, n int) ([]DirEntry, error)

	// Close releases the handle. After Close, ReadBatch must not be called.
	Close() error
}

// Volume is a read-only view of a directory tree rooted at "/".
//
// Paths:
// All paths are slash-separated and absolute within the volume ("/",
// "/docs", "/docs/report.pdf"). Implementations resolve them against their
// own root; callers never see backend-native paths.
//
// Errors:
// Implementations classify failures by wrapping the fs sentinel errors, so
// callers can switch on errors.Is(err, fs.ErrNotExist) and
// errors.Is(err, fs.ErrPermission) without knowing the backend.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Volume interface {
	// OpenDir opens the directory at path for iteration.
	//
	// Returns:
	//   - DirHandle: Iterator over the directory (must be closed by caller)
	//   - error: fs.ErrNotExist if the path is missing or not a directory,
	//     fs.ErrPermission if access is denied, or an I/O failure
	OpenDir(ctx context.Context, path string) (DirHandle, error)

	// Stat returns the attributes of the entry at path, following symlinks.
	Stat(ctx context.Context, path string) (*EntryInfo, error)

	// Lstat returns the attributes of the entry at path without following
	// symlinks. For backends with no symlink concept it behaves like Stat.
	Lstat(ctx context.Context, path string) (*EntryInfo, error)

	// Open opens the file at path for reading.
	//
	// Returns:
	//   - io.ReadCloser: File content (must be closed by caller)
	//   - error: fs.ErrNotExist, fs.ErrPermission, or an I/O failure
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// InfoFromFileInfo converts an fs.FileInfo into an EntryInfo.
func InfoFromFileInfo(fi fs.FileInfo) *EntryInfo {
	return &EntryInfo{
		Dir:     fi.IsDir(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
}

package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/fancydir/fancydir/pkg/vfs"
)

// MemoryVolume implements vfs.Volume using an in-memory directory tree.
//
// This implementation keeps the whole tree in memory. It's designed for:
//   - Testing and development
//   - Serving small fixed trees without touching the filesystem
//
// Characteristics:
//   - Fast: All operations are memory-speed
//   - Volatile: Tree lost on restart
//   - Deterministic: Directory iteration follows insertion order
//   - Thread-safe: Protected by RWMutex
//
// Directory iteration resolves attributes inline, so DirEntry.Info is always
// populated and callers never need a follow-up Stat per entry.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. ReadBatch iterates over a
// snapshot taken at OpenDir time, so mutations after OpenDir do not affect
// an open handle.
type MemoryVolume struct {
	// root is the top-level directory node
	root *node

	// mu protects concurrent access to the tree
	mu sync.RWMutex
}

// node is a single file or directory in the tree.
type node struct {
	dir      bool
	data     []byte
	modTime  time.Time
	children map[string]*node

	// order tracks child insertion order for deterministic iteration
	order []string
}

// NewMemoryVolume creates a new in-memory volume with an empty root
// directory.
//
// Parameters:
//   - ctx: Context for cancellation (checked before initialization)
//
// Returns:
//   - *MemoryVolume: Initialized volume
//   - error: Only returns error if context is cancelled
func NewMemoryVolume(ctx context.Context) (*MemoryVolume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryVolume{
		root: &node{
			dir:      true,
			children: make(map[string]*node),
		},
	}, nil
}

// ============================================================================
// Tree Construction
// ============================================================================

// AddDir creates a directory at the given volume path, creating missing
// parent directories along the way.
//
// Adding a path that already exists as a directory only updates its
// modification time.
func (v *MemoryVolume) AddDir(p string, modTime time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.makePath(p)
	if err != nil {
		return err
	}
	if !n.dir {
		return fmt.Errorf("add dir %q: entry exists as a file", p)
	}
	n.modTime = modTime
	return nil
}

// AddFile creates a file at the given volume path with the given content,
// creating missing parent directories along the way.
//
// Adding a path that already exists as a file replaces its content.
func (v *MemoryVolume) AddFile(p string, data []byte, modTime time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	dir, name, err := v.splitPath(p)
	if err != nil {
		return err
	}

	parent, err := v.makePath(dir)
	if err != nil {
		return err
	}

	existing, ok := parent.children[name]
	if ok {
		if existing.dir {
			return fmt.Errorf("add file %q: entry exists as a directory", p)
		}
		existing.data = data
		existing.modTime = modTime
		return nil
	}

	parent.children[name] = &node{
		data:    data,
		modTime: modTime,
	}
	parent.order = append(parent.order, name)
	return nil
}

// splitPath validates a volume path and splits it into parent directory and
// entry name.
func (v *MemoryVolume) splitPath(p string) (string, string, error) {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) >= 0 {
		return "", "", fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}
	clean := path.Clean(p)
	if clean == "/" {
		return "", "", fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}
	return path.Dir(clean), path.Base(clean), nil
}

// makePath walks the tree to the given directory path, creating missing
// directories. Caller must hold the write lock.
func (v *MemoryVolume) makePath(p string) (*node, error) {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) >= 0 {
		return nil, fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}

	n := v.root
	for _, seg := range splitSegments(p) {
		child, ok := n.children[seg]
		if !ok {
			child = &node{
				dir:      true,
				children: make(map[string]*node),
			}
			n.children[seg] = child
			n.order = append(n.order, seg)
		}
		if !child.dir {
			return nil, fmt.Errorf("path %q: %q exists as a file", p, seg)
		}
		n = child
	}
	return n, nil
}

// lookup walks the tree to the node at the given path. Caller must hold at
// least the read lock.
func (v *MemoryVolume) lookup(p string) (*node, error) {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) >= 0 {
		return nil, fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}

	n := v.root
	for _, seg := range splitSegments(p) {
		if !n.dir {
			return nil, fmt.Errorf("lookup %q: %w", p, fs.ErrNotExist)
		}
		child, ok := n.children[seg]
		if !ok {
			return nil, fmt.Errorf("lookup %q: %w", p, fs.ErrNotExist)
		}
		n = child
	}
	return n, nil
}

// splitSegments breaks a cleaned volume path into its segments. The root
// path yields no segments.
func splitSegments(p string) []string {
	clean := path.Clean(p)
	if clean == "/" {
		return nil
	}
	return strings.Split(clean[1:], "/")
}

// info converts a node into an EntryInfo snapshot.
func (n *node) info() *vfs.EntryInfo {
	return &vfs.EntryInfo{
		Dir:     n.dir,
		Size:    int64(len(n.data)),
		ModTime: n.modTime,
	}
}

// ============================================================================
// Volume Interface Implementation
// ============================================================================

// OpenDir opens the directory at the given volume path for iteration.
//
// The handle iterates over a snapshot of the directory taken here, in
// insertion order, with attributes resolved inline.
func (v *MemoryVolume) OpenDir(ctx context.Context, p string) (vfs.DirHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	n, err := v.lookup(p)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, fmt.Errorf("open %q: not a directory: %w", p, fs.ErrNotExist)
	}

	entries := make([]vfs.DirEntry, 0, len(n.order))
	for _, name := range n.order {
		child := n.children[name]
		entries = append(entries, vfs.DirEntry{
			Name: name,
			Info: child.info(),
		})
	}

	return &memoryDirHandle{entries: entries}, nil
}

// Stat returns the attributes of the entry at the given volume path.
func (v *MemoryVolume) Stat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	n, err := v.lookup(p)
	if err != nil {
		return nil, err
	}
	return n.info(), nil
}

// Lstat behaves like Stat. The in-memory tree has no symlinks.
func (v *MemoryVolume) Lstat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	return v.Stat(ctx, p)
}

// Open opens the file at the given volume path for reading.
//
// The returned reader reads from a copy of the content, so modifications to
// the tree after this call won't affect the reader.
func (v *MemoryVolume) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	n, err := v.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, fmt.Errorf("open %q: is a directory", p)
	}

	dataCopy := make([]byte, len(n.data))
	copy(dataCopy, n.data)

	return io.NopCloser(bytes.NewReader(dataCopy)), nil
}

// ============================================================================
// Directory Handle
// ============================================================================

// memoryDirHandle iterates a snapshot of directory entries.
type memoryDirHandle struct {
	entries []vfs.DirEntry
	pos     int
	closed  bool
}

// ReadBatch returns up to n entries from the snapshot.
func (h *memoryDirHandle) ReadBatch(ctx context.Context, n int) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.closed {
		return nil, vfs.ErrClosed
	}
	if h.pos >= len(h.entries) {
		return nil, io.EOF
	}

	end := h.pos + n
	if end > len(h.entries) {
		end = len(h.entries)
	}
	batch := h.entries[h.pos:end]
	h.pos = end
	return batch, nil
}

// Close releases the handle.
func (h *memoryDirHandle) Close() error {
	h.closed = true
	return nil
}

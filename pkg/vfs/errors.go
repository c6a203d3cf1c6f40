package vfs

import "errors"

// ============================================================================
// Standard Volume Errors
// ============================================================================

// Volume implementations report missing entries and denied access by wrapping
// fs.ErrNotExist and fs.ErrPermission, so callers classify failures with
// errors.Is regardless of the backend. The sentinels below cover conditions
// the fs package has no name for.

var (
	// ErrInvalidPath indicates a volume path that is not absolute or is
	// otherwise malformed.
	//
	// Volume paths are always slash-separated and rooted at "/". This error
	// is returned when:
	//   - The path does not start with "/"
	//   - The path contains a NUL byte
	//
	// Error Wrapping:
	// Implementations wrap this error with the offending path:
	//
	//	return fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	ErrInvalidPath = errors.New("invalid volume path")

	// ErrClosed indicates an operation on a DirHandle after Close.
	ErrClosed = errors.New("directory handle closed")
)

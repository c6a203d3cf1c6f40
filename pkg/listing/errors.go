package listing

import (
	"errors"
	"fmt"
	"io/fs"
)

// ============================================================================
// Generation Errors
// ============================================================================

// ErrorKind classifies a generation failure so transports can map it to a
// status code without inspecting backend errors.
type ErrorKind int

const (
	// KindNotFound means the requested directory does not exist, is not a
	// directory, or its name cannot be represented.
	//
	// Protocol Mapping:
	//   - HTTP: 404 Not Found
	KindNotFound ErrorKind = iota + 1

	// KindPermissionDenied means the directory exists but cannot be read.
	//
	// Protocol Mapping:
	//   - HTTP: 403 Forbidden
	KindPermissionDenied

	// KindIOFailure covers every other failure: read errors during
	// iteration, stat failures on entries, backend outages.
	//
	// Protocol Mapping:
	//   - HTTP: 500 Internal Server Error
	KindIOFailure
)

// String returns a stable label for the kind, usable as a metric value.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindIOFailure:
		return "io_failure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a classified generation failure.
type Error struct {
	// Kind is the failure class.
	Kind ErrorKind

	// Path is the volume path the failure was observed on.
	Path string

	// Err is the underlying error.
	Err error
}

// Error returns the failure description.
func (e *Error) Error() string {
	return fmt.Sprintf("listing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyOpen maps a directory open failure onto an ErrorKind.
//
// Missing paths and paths that run through a non-directory both come back
// from the volume as fs.ErrNotExist, denied access as fs.ErrPermission.
// Everything else is an I/O failure.
func classifyOpen(path string, err error) *Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: KindNotFound, Path: path, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &Error{Kind: KindPermissionDenied, Path: path, Err: err}
	default:
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}
}

// ioError wraps an error observed past the initial open. Failures during
// iteration or on entry attributes always abort the whole listing.
func ioError(path string, err error) *Error {
	return &Error{Kind: KindIOFailure, Path: path, Err: err}
}

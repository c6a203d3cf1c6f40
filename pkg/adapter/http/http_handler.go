package http

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/fancydir/fancydir/internal/logger"
	"github.com/fancydir/fancydir/pkg/listing"
)

// ServeHTTP dispatches one request against the volume.
//
// Request handling:
//   - Only GET and HEAD are accepted; other methods get 405
//   - The path is cleaned before any volume access
//   - A directory path without a trailing slash redirects (301) to the
//     slashed form, matching how relative links on index pages resolve
//   - Directory requests render an index page (403 when listing is off)
//   - File requests stream the file with a type derived from the extension
func (a *HTTPAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	a.metrics.RecordRequestStart()
	defer a.metrics.RecordRequestEnd()

	status, bytes := a.handle(w, r)

	a.metrics.RecordRequest(r.Method, status, time.Since(start))
	if bytes > 0 {
		a.metrics.RecordBytesServed(bytes)
	}

	logger.Debug("%s %s -> %d (%d bytes, %v)",
		r.Method, r.URL.Path, status, bytes, time.Since(start))
}

// handle serves one request and reports the response status and body size.
func (a *HTTPAdapter) handle(w http.ResponseWriter, r *http.Request) (int, int64) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		return a.fail(w, http.StatusMethodNotAllowed, "method not allowed")
	}

	rawPath := r.URL.Path
	if !strings.HasPrefix(rawPath, "/") {
		return a.fail(w, http.StatusBadRequest, "bad request path")
	}

	// Clean drops duplicate slashes, dot segments and the trailing slash.
	// The cleaned path cannot escape the volume root.
	clean := path.Clean(rawPath)
	hadSlash := strings.HasSuffix(rawPath, "/")

	info, err := a.vol.Stat(r.Context(), clean)
	if err != nil {
		return a.failVolume(w, clean, err)
	}

	if info.Dir {
		if !hadSlash {
			// Redirect so relative links on the index page resolve against
			// the directory, not its parent.
			location := (&url.URL{Path: clean + "/", RawQuery: r.URL.RawQuery}).String()
			http.Redirect(w, r, location, http.StatusMovedPermanently)
			return http.StatusMovedPermanently, 0
		}
		return a.serveListing(w, r, clean)
	}

	if hadSlash {
		// A file path with a trailing slash names nothing.
		return a.fail(w, http.StatusNotFound, "not found")
	}

	return a.serveFile(w, r, clean, info.Size, info.ModTime)
}

// serveListing renders and sends the index page for a directory.
func (a *HTTPAdapter) serveListing(w http.ResponseWriter, r *http.Request, dir string) (int, int64) {
	if !a.options.Enabled {
		return a.fail(w, http.StatusForbidden, "directory listing disabled")
	}

	uri := r.URL.EscapedPath()
	if !strings.HasSuffix(uri, "/") {
		uri += "/"
	}

	doc, err := a.generator.Generate(r.Context(), listing.Request{
		Dir:  dir,
		URI:  uri,
		UTF8: a.utf8,
	})
	if err != nil {
		var lerr *listing.Error
		if errors.As(err, &lerr) {
			switch lerr.Kind {
			case listing.KindNotFound:
				return a.fail(w, http.StatusNotFound, "not found")
			case listing.KindPermissionDenied:
				return a.fail(w, http.StatusForbidden, "forbidden")
			}
			logger.Error("Listing generation failed: path=%s error=%v", lerr.Path, lerr.Err)
		} else {
			logger.Error("Listing generation failed: path=%s error=%v", dir, err)
		}
		return a.fail(w, http.StatusInternalServerError, "internal server error")
	}

	for _, warning := range doc.Warnings {
		logger.Warn("Listing warning: path=%s %s", dir, warning)
	}

	w.Header().Set("Content-Type", fmt.Sprintf("%s; charset=%s", doc.ContentType, a.options.Charset))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return http.StatusOK, 0
	}

	n, err := w.Write(doc.Body)
	if err != nil {
		logger.Debug("Client went away while writing listing for %s: %v", dir, err)
	}
	return http.StatusOK, int64(n)
}

// serveFile streams a regular file from the volume.
func (a *HTTPAdapter) serveFile(w http.ResponseWriter, r *http.Request, p string, size int64, modTime time.Time) (int, int64) {
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if !modTime.IsZero() {
		w.Header().Set("Last-Modified", modTime.UTC().Format(http.TimeFormat))
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return http.StatusOK, 0
	}

	rc, err := a.vol.Open(r.Context(), p)
	if err != nil {
		// Headers are not committed yet, an error status can still go out.
		return a.failVolume(w, p, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			logger.Warn("Failed to close file: path=%s error=%v", p, err)
		}
	}()

	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, rc)
	if err != nil {
		logger.Debug("Client went away while streaming %s: %v", p, err)
	}
	return http.StatusOK, n
}

// failVolume maps a volume error onto an HTTP error response.
func (a *HTTPAdapter) failVolume(w http.ResponseWriter, p string, err error) (int, int64) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return a.fail(w, http.StatusNotFound, "not found")
	case errors.Is(err, fs.ErrPermission):
		return a.fail(w, http.StatusForbidden, "forbidden")
	default:
		logger.Error("Volume access failed: path=%s error=%v", p, err)
		return a.fail(w, http.StatusInternalServerError, "internal server error")
	}
}

// fail sends a plain-text error response.
func (a *HTTPAdapter) fail(w http.ResponseWriter, status int, msg string) (int, int64) {
	http.Error(w, msg, status)
	return status, 0
}

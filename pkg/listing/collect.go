package listing

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"sort"

	"github.com/fancydir/fancydir/internal/logger"
	"github.com/fancydir/fancydir/pkg/vfs"
)

const (
	// readBatchSize bounds how many names one volume call returns.
	readBatchSize = 64

	// entryPrealloc is the initial entry slice capacity.
	entryPrealloc = 40
)

// entryPath joins a directory path and an entry name into a volume path.
func entryPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// collectEntries reads the visible entries of a directory.
//
// Hidden entries (names starting with a dot) are skipped before any
// attribute lookup. For entries the volume returns without attributes, the
// entry is stat'd; if the stat reports the entry missing, a dangling
// symlink is assumed and its own attributes are read with Lstat so the
// entry still lists. Any other attribute failure aborts the whole listing.
//
// The directory handle is closed before this function returns, on success
// and on failure.
func collectEntries(ctx context.Context, vol vfs.Volume, dir string, utf8Mode bool) ([]entry, error) {
	d, err := vol.OpenDir(ctx, dir)
	if err != nil {
		return nil, classifyOpen(dir, err)
	}

	entries := make([]entry, 0, entryPrealloc)

	for {
		batch, err := d.ReadBatch(ctx, readBatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closeDir(d, dir)
			return nil, ioError(dir, err)
		}

		for _, de := range batch {
			if de.Name == "" || de.Name[0] == '.' {
				continue
			}

			info := de.Info
			if info == nil {
				p := entryPath(dir, de.Name)

				info, err = vol.Stat(ctx, p)
				if err != nil && errors.Is(err, fs.ErrNotExist) {
					info, err = vol.Lstat(ctx, p)
				}
				if err != nil {
					closeDir(d, dir)
					return nil, ioError(p, err)
				}
			}

			entries = append(entries, newEntry(de.Name, info, utf8Mode))
		}
	}

	closeDir(d, dir)
	return entries, nil
}

// closeDir closes a directory handle. A close failure cannot change the
// outcome of the listing anymore, so it is only logged.
func closeDir(d vfs.DirHandle, dir string) {
	if err := d.Close(); err != nil {
		logger.Error("Failed to close directory handle: path=%s error=%v", dir, err)
	}
}

// sortEntries orders entries for rendering: directories first, then
// everything by raw byte order of the name. The sort is stable, so entries
// with equal names keep their collection order.
func sortEntries(entries []entry) {
	if len(entries) <= 1 {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.dir != b.dir {
			return a.dir
		}
		return a.name < b.name
	})
}

// resolveReadme reports whether the configured readme file exists in the
// directory. Any stat failure, including permission problems, just disables
// the readme for this listing.
func resolveReadme(ctx context.Context, vol vfs.Volume, dir, readme string) bool {
	if readme == "" {
		return false
	}
	_, err := vol.Stat(ctx, entryPath(dir, readme))
	return err == nil
}

package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fancydir/fancydir/pkg/vfs"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

func newVolume(t *testing.T) (*LocalVolume, string) {
	t.Helper()
	root := t.TempDir()
	vol, err := NewLocalVolume(context.Background(), root)
	require.NoError(t, err)
	return vol, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// readAllNames drains a directory handle and returns every entry name.
func readAllNames(t *testing.T, d vfs.DirHandle) []string {
	t.Helper()
	var names []string
	for {
		batch, err := d.ReadBatch(context.Background(), 16)
		if err == io.EOF {
			return names
		}
		require.NoError(t, err)
		for _, e := range batch {
			names = append(names, e.Name)
		}
	}
}

// ============================================================================
// Construction Tests
// ============================================================================

func TestNewLocalVolume(t *testing.T) {
	t.Run("AcceptsExistingDirectory", func(t *testing.T) {
		root := t.TempDir()
		vol, err := NewLocalVolume(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, root, vol.Root())
	})

	t.Run("RejectsMissingRoot", func(t *testing.T) {
		_, err := NewLocalVolume(context.Background(), filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
	})

	t.Run("RejectsFileRoot", func(t *testing.T) {
		root := t.TempDir()
		file := filepath.Join(root, "plain.txt")
		writeFile(t, file, "x")

		_, err := NewLocalVolume(context.Background(), file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLocalVolume(ctx, t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// ============================================================================
// Directory Iteration Tests
// ============================================================================

func TestLocalVolumeOpenDir(t *testing.T) {
	ctx := context.Background()

	t.Run("IteratesEntriesWithoutAttributes", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "a.txt"), "x")
		writeFile(t, filepath.Join(root, "b.txt"), "x")
		require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

		d, err := vol.OpenDir(ctx, "/")
		require.NoError(t, err)
		defer d.Close()

		batch, err := d.ReadBatch(ctx, 16)
		require.NoError(t, err)
		for _, e := range batch {
			assert.Nil(t, e.Info, "entry %s", e.Name)
		}

		names := append(entryNames(batch), readAllNames(t, d)...)
		assert.ElementsMatch(t, []string{"a.txt", "b.txt", "sub"}, names)
	})

	t.Run("ReturnsDotfiles", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, ".hidden"), "x")
		writeFile(t, filepath.Join(root, "shown.txt"), "x")

		d, err := vol.OpenDir(ctx, "/")
		require.NoError(t, err)
		defer d.Close()

		assert.ElementsMatch(t, []string{".hidden", "shown.txt"}, readAllNames(t, d))
	})

	t.Run("RespectsBatchLimit", func(t *testing.T) {
		vol, root := newVolume(t)
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			writeFile(t, filepath.Join(root, name), "x")
		}

		d, err := vol.OpenDir(ctx, "/")
		require.NoError(t, err)
		defer d.Close()

		total := 0
		for {
			batch, err := d.ReadBatch(ctx, 2)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, len(batch), 2)
			total += len(batch)
		}
		assert.Equal(t, 5, total)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		vol, _ := newVolume(t)
		_, err := vol.OpenDir(ctx, "/nope")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("FileInsteadOfDirectory", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "plain.txt"), "x")

		_, err := vol.OpenDir(ctx, "/plain.txt")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("PathThroughFile", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "plain.txt"), "x")

		_, err := vol.OpenDir(ctx, "/plain.txt/sub")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("running as root")
		}
		vol, root := newVolume(t)
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Mkdir(locked, 0o755))
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		_, err := vol.OpenDir(ctx, "/locked")
		assert.ErrorIs(t, err, fs.ErrPermission)
	})

	t.Run("ClosedHandleRejectsRead", func(t *testing.T) {
		vol, _ := newVolume(t)
		d, err := vol.OpenDir(ctx, "/")
		require.NoError(t, err)
		require.NoError(t, d.Close())

		_, err = d.ReadBatch(ctx, 1)
		assert.ErrorIs(t, err, vfs.ErrClosed)
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		vol, _ := newVolume(t)
		d, err := vol.OpenDir(ctx, "/")
		require.NoError(t, err)
		require.NoError(t, d.Close())
		assert.NoError(t, d.Close())
	})
}

func entryNames(batch []vfs.DirEntry) []string {
	var names []string
	for _, e := range batch {
		names = append(names, e.Name)
	}
	return names
}

// ============================================================================
// Stat Tests
// ============================================================================

func TestLocalVolumeStat(t *testing.T) {
	ctx := context.Background()

	t.Run("StatsFile", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "plain.txt"), "hello")

		info, err := vol.Stat(ctx, "/plain.txt")
		require.NoError(t, err)
		assert.False(t, info.Dir)
		assert.Equal(t, int64(5), info.Size)
		assert.False(t, info.ModTime.IsZero())
	})

	t.Run("StatsDirectory", func(t *testing.T) {
		vol, root := newVolume(t)
		require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

		info, err := vol.Stat(ctx, "/sub")
		require.NoError(t, err)
		assert.True(t, info.Dir)
	})

	t.Run("MissingEntry", func(t *testing.T) {
		vol, _ := newVolume(t)
		_, err := vol.Stat(ctx, "/nope")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("FollowsSymlinks", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "target.txt"), "content")
		require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link")))

		info, err := vol.Stat(ctx, "/link")
		require.NoError(t, err)
		assert.False(t, info.Dir)
		assert.Equal(t, int64(7), info.Size)
	})

	t.Run("DanglingSymlink", func(t *testing.T) {
		vol, root := newVolume(t)
		require.NoError(t, os.Symlink("gone.txt", filepath.Join(root, "dangling")))

		_, err := vol.Stat(ctx, "/dangling")
		assert.ErrorIs(t, err, fs.ErrNotExist)

		info, err := vol.Lstat(ctx, "/dangling")
		require.NoError(t, err)
		assert.False(t, info.Dir)
	})
}

// ============================================================================
// Path Handling Tests
// ============================================================================

func TestLocalVolumePathHandling(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsRelativePath", func(t *testing.T) {
		vol, _ := newVolume(t)
		_, err := vol.Stat(ctx, "plain.txt")
		assert.ErrorIs(t, err, vfs.ErrInvalidPath)
	})

	t.Run("RejectsNulByte", func(t *testing.T) {
		vol, _ := newVolume(t)
		_, err := vol.Stat(ctx, "/a\x00b")
		assert.ErrorIs(t, err, vfs.ErrInvalidPath)
	})

	t.Run("DotDotStaysInsideRoot", func(t *testing.T) {
		outer := t.TempDir()
		root := filepath.Join(outer, "root")
		require.NoError(t, os.Mkdir(root, 0o755))
		writeFile(t, filepath.Join(outer, "escape.txt"), "x")

		vol, err := NewLocalVolume(ctx, root)
		require.NoError(t, err)

		_, err = vol.Stat(ctx, "/../escape.txt")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("DotDotAtRootResolvesToRoot", func(t *testing.T) {
		vol, _ := newVolume(t)
		info, err := vol.Stat(ctx, "/..")
		require.NoError(t, err)
		assert.True(t, info.Dir)
	})
}

// ============================================================================
// File Open Tests
// ============================================================================

func TestLocalVolumeOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsFileContent", func(t *testing.T) {
		vol, root := newVolume(t)
		writeFile(t, filepath.Join(root, "plain.txt"), "hello world")

		r, err := vol.Open(ctx, "/plain.txt")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
	})

	t.Run("MissingFile", func(t *testing.T) {
		vol, _ := newVolume(t)
		_, err := vol.Open(ctx, "/nope.txt")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

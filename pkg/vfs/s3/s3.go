package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fancydir/fancydir/pkg/vfs"
)

// S3Volume implements vfs.Volume on top of Amazon S3 or S3-compatible
// storage.
//
// Key Design:
//   - Volume path "/docs/report.pdf" maps to object key "docs/report.pdf"
//     (with an optional key prefix in front)
//   - Directories are prefixes: "/docs" is a directory if any object key
//     starts with "docs/"
//   - Directory listing uses ListObjectsV2 with Delimiter="/", so files come
//     from Contents and subdirectories from CommonPrefixes
//
// S3 Characteristics:
//   - Directories carry no modification time; subdirectory entries report
//     the zero time
//   - A directory exists only while objects exist under its prefix
//   - Console-created zero-byte "folder marker" objects are skipped during
//     iteration
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines. A
// DirHandle returned by OpenDir is owned by a single goroutine.
type S3Volume struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3VolumeConfig contains configuration for an S3 volume.
type S3VolumeConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "public/" maps volume path "/docs" to prefix "public/docs/"
	KeyPrefix string
}

// NewS3Volume creates a new S3-backed volume.
//
// This verifies bucket access up front. The bucket must already exist.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3Volume: Initialized volume
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3Volume(ctx context.Context, cfg S3VolumeConfig) (*S3Volume, error) {
	// ========================================================================
	// Step 1: Check context before S3 operations
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Validate configuration
	// ========================================================================

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix += "/"
	}

	// ========================================================================
	// Step 3: Verify bucket access
	// ========================================================================

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Volume{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: keyPrefix,
	}, nil
}

// cleanPath validates and cleans a volume path.
func cleanPath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) >= 0 {
		return "", fmt.Errorf("path %q: %w", p, vfs.ErrInvalidPath)
	}
	return path.Clean(p), nil
}

// objectKey returns the object key for a file at the given volume path.
func (v *S3Volume) objectKey(clean string) string {
	return v.keyPrefix + clean[1:]
}

// dirPrefix returns the listing prefix for a directory at the given volume
// path. The root maps to the bare key prefix; everything else gets a
// trailing slash.
func (v *S3Volume) dirPrefix(clean string) string {
	if clean == "/" {
		return v.keyPrefix
	}
	return v.keyPrefix + clean[1:] + "/"
}

// prefixExists reports whether any object lives under the given prefix.
func (v *S3Volume) prefixExists(ctx context.Context, prefix string) (bool, error) {
	result, err := v.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(v.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list prefix %q: %w", prefix, err)
	}
	return len(result.Contents) > 0 || len(result.CommonPrefixes) > 0, nil
}

// ============================================================================
// Volume Interface Implementation
// ============================================================================

// OpenDir opens the prefix at the given volume path for iteration.
//
// The directory must exist: for the root that is always true, for any other
// path at least one object key must live under the prefix.
func (v *S3Volume) OpenDir(ctx context.Context, p string) (vfs.DirHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	prefix := v.dirPrefix(clean)

	if clean != "/" {
		exists, err := v.prefixExists(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("open %q: %w", p, fs.ErrNotExist)
		}
	}

	paginator := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(v.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	return &s3DirHandle{
		paginator: paginator,
		prefix:    prefix,
	}, nil
}

// Stat returns the attributes of the entry at the given volume path.
//
// A file resolves via HeadObject. When no object matches exactly, the path
// is re-probed as a directory prefix.
func (v *S3Volume) Stat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	if clean == "/" {
		return &vfs.EntryInfo{Dir: true}, nil
	}

	key := v.objectKey(clean)

	result, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to head object %q: %w", key, err)
		}

		exists, probeErr := v.prefixExists(ctx, v.dirPrefix(clean))
		if probeErr != nil {
			return nil, probeErr
		}
		if exists {
			return &vfs.EntryInfo{Dir: true}, nil
		}
		return nil, fmt.Errorf("stat %q: %w", p, fs.ErrNotExist)
	}

	info := &vfs.EntryInfo{}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.LastModified != nil {
		info.ModTime = *result.LastModified
	}
	return info, nil
}

// Lstat behaves like Stat. Object storage has no symlinks.
func (v *S3Volume) Lstat(ctx context.Context, p string) (*vfs.EntryInfo, error) {
	return v.Stat(ctx, p)
}

// Open opens the object at the given volume path for reading.
//
// The caller is responsible for closing the returned ReadCloser.
func (v *S3Volume) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if clean == "/" {
		return nil, fmt.Errorf("open %q: is a directory", p)
	}

	key := v.objectKey(clean)

	result, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("open %q: %w", p, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}

	return result.Body, nil
}

// ============================================================================
// Directory Handle
// ============================================================================

// s3DirHandle iterates a prefix page by page, buffering converted entries
// between ReadBatch calls.
type s3DirHandle struct {
	paginator *s3.ListObjectsV2Paginator
	prefix    string
	buf       []vfs.DirEntry
	closed    bool
}

// ReadBatch returns up to n entries, fetching further pages as needed.
func (h *s3DirHandle) ReadBatch(ctx context.Context, n int) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.closed {
		return nil, vfs.ErrClosed
	}

	for len(h.buf) == 0 {
		if !h.paginator.HasMorePages() {
			return nil, io.EOF
		}

		page, err := h.paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, h.prefix), "/")
			if name == "" {
				continue
			}
			h.buf = append(h.buf, vfs.DirEntry{
				Name: name,
				Info: &vfs.EntryInfo{Dir: true},
			})
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, h.prefix)
			if name == "" {
				// Folder marker object for the listed prefix itself
				continue
			}

			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}
			var modTime time.Time
			if obj.LastModified != nil {
				modTime = *obj.LastModified
			}
			h.buf = append(h.buf, vfs.DirEntry{
				Name: name,
				Info: &vfs.EntryInfo{Size: size, ModTime: modTime},
			})
		}
	}

	if n > len(h.buf) {
		n = len(h.buf)
	}
	batch := h.buf[:n]
	h.buf = h.buf[n:]
	return batch, nil
}

// Close releases the handle.
func (h *s3DirHandle) Close() error {
	h.closed = true
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Logical buckets used by the portal.
const (
	BucketArticleCovers = "article_covers"
	BucketInfoImages    = "info_images"
	BucketPreviews      = "previews"
	BucketMaterials     = "materials"
)

// PublicBuckets are readable without a signed URL.
var PublicBuckets = []string{BucketArticleCovers, BucketInfoImages, BucketPreviews}

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrUnknownBucket is returned for bucket names outside the known set.
var ErrUnknownBucket = errors.New("unknown bucket")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Path        string
	Size        int64
	ContentType string
}

// ObjectStore persists uploaded files grouped in buckets.
type ObjectStore interface {
	Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, *ObjectInfo, error)
	Remove(ctx context.Context, bucket string, paths ...string) error
	PublicURL(bucket, path string) string
	SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// IsPublicBucket reports whether objects in bucket may be served without a token.
func IsPublicBucket(bucket string) bool {
	for _, b := range PublicBuckets {
		if b == bucket {
			return true
		}
	}
	return false
}

// KnownBucket reports whether bucket is one of the portal buckets.
func KnownBucket(bucket string) bool {
	return bucket == BucketMaterials || IsPublicBucket(bucket)
}

// ObjectName builds a unique object path of the form <unix millis>_<sanitized name><ext>.
func ObjectName(original string, now time.Time) string {
	base := filepath.Base(strings.TrimSpace(original))
	ext := strings.ToLower(filepath.Ext(base))
	stem := sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "file"
	}
	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), stem, sanitizeExt(ext))
}

func sanitize(raw string) string {
	raw = strings.ToLower(raw)
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func sanitizeExt(ext string) string {
	if ext == "" || ext == "." {
		return ""
	}
	clean := sanitize(strings.TrimPrefix(ext, "."))
	if clean == "" {
		return ""
	}
	return "." + clean
}

func cleanObjectPath(path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("object path required")
	}
	cleaned := filepath.ToSlash(filepath.Clean(path))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("object path escapes bucket")
	}
	return cleaned, nil
}

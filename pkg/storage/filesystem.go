package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// LocalStorage persists objects on disk as <baseDir>/<bucket>/<path>.
type LocalStorage struct {
	baseDir   string
	publicURL string
	signer    *SignedURLSigner
}

// NewLocalStorage ensures the bucket directories exist and returns a handle.
// publicURL is the externally reachable API base used to build file links.
func NewLocalStorage(baseDir, publicURL string, signer *SignedURLSigner) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	for _, bucket := range append([]string{BucketMaterials}, PublicBuckets...) {
		if err := os.MkdirAll(filepath.Join(baseDir, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket directory: %w", err)
		}
	}
	return &LocalStorage{
		baseDir:   baseDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		signer:    signer,
	}, nil
}

// Put copies from reader into the bucket.
func (s *LocalStorage) Put(_ context.Context, bucket, path string, r io.Reader, _ int64, _ string) error {
	target, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write object stream: %w", err)
	}
	return nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalStorage) Open(_ context.Context, bucket, path string) (io.ReadCloser, *ObjectInfo, error) {
	target, err := s.resolve(bucket, path)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("open object file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat object file: %w", err)
	}
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(target); err == nil {
		contentType = mt.String()
	}
	return file, &ObjectInfo{Bucket: bucket, Path: path, Size: stat.Size(), ContentType: contentType}, nil
}

// Remove deletes the given objects, ignoring ones already gone.
func (s *LocalStorage) Remove(_ context.Context, bucket string, paths ...string) error {
	for _, path := range paths {
		target, err := s.resolve(bucket, path)
		if err != nil {
			return err
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete object file: %w", err)
		}
	}
	return nil
}

// PublicURL links to the file route for a public object.
func (s *LocalStorage) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/files/%s/%s", s.publicURL, bucket, escapePath(path))
}

// SignedURL links to the file route with a time limited token.
func (s *LocalStorage) SignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("signed url signer not configured")
	}
	token, _, err := s.signer.Generate(bucket, path, ttl)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/files/%s/%s?token=%s", s.publicURL, bucket, escapePath(path), url.QueryEscape(token)), nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(bucket, path string) string {
	target, _ := s.resolve(bucket, path)
	return target
}

func (s *LocalStorage) resolve(bucket, path string) (string, error) {
	if !KnownBucket(bucket) {
		return "", ErrUnknownBucket
	}
	cleaned, err := cleanObjectPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, bucket, filepath.FromSlash(cleaned)), nil
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures the S3 compatible driver.
type MinioOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	BucketPrefix string
}

// MinioStorage stores each logical bucket in its own MinIO bucket.
type MinioStorage struct {
	mc     *minio.Client
	prefix string
	scheme string
	host   string
}

// NewMinioStorage creates a MinIO backed store.
func NewMinioStorage(opts MinioOptions) (*MinioStorage, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	prefix := strings.Trim(strings.ToLower(opts.BucketPrefix), "-")
	if prefix == "" {
		prefix = "bk-portal"
	}
	return &MinioStorage{mc: mc, prefix: prefix, scheme: scheme, host: opts.Endpoint}, nil
}

// BucketName maps a logical bucket onto a valid S3 bucket name.
func (s *MinioStorage) BucketName(bucket string) string {
	return s.prefix + "-" + strings.ReplaceAll(bucket, "_", "-")
}

// EnsureBuckets creates missing buckets and opens read access on public ones.
func (s *MinioStorage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range append([]string{BucketMaterials}, PublicBuckets...) {
		name := s.BucketName(bucket)
		exists, err := s.mc.BucketExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", name, err)
		}
		if !exists {
			if err := s.mc.MakeBucket(ctx, name, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		if IsPublicBucket(bucket) {
			if err := s.mc.SetBucketPolicy(ctx, name, publicReadPolicy(name)); err != nil {
				return fmt.Errorf("set bucket policy %s: %w", name, err)
			}
		}
	}
	return nil
}

// Put uploads an object.
func (s *MinioStorage) Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error {
	if !KnownBucket(bucket) {
		return ErrUnknownBucket
	}
	key, err := cleanObjectPath(path)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.mc.PutObject(ctx, s.BucketName(bucket), key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Open downloads an object; the caller closes the reader.
func (s *MinioStorage) Open(ctx context.Context, bucket, path string) (io.ReadCloser, *ObjectInfo, error) {
	if !KnownBucket(bucket) {
		return nil, nil, ErrUnknownBucket
	}
	obj, err := s.mc.GetObject(ctx, s.BucketName(bucket), path, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", path, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return obj, &ObjectInfo{Bucket: bucket, Path: path, Size: stat.Size, ContentType: stat.ContentType}, nil
}

// Remove deletes objects from a bucket.
func (s *MinioStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if !KnownBucket(bucket) {
		return ErrUnknownBucket
	}
	for _, path := range paths {
		if err := s.mc.RemoveObject(ctx, s.BucketName(bucket), path, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return nil
}

// PublicURL returns the anonymous URL of an object in a public bucket.
func (s *MinioStorage) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: s.scheme, Host: s.host, Path: "/" + s.BucketName(bucket) + "/" + path}
	return u.String()
}

// SignedURL presigns a GET request valid for ttl.
func (s *MinioStorage) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if !KnownBucket(bucket) {
		return "", ErrUnknownBucket
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	u, err := s.mc.PresignedGetObject(ctx, s.BucketName(bucket), path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return u.String(), nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

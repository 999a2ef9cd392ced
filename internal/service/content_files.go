package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

// MsgStorageCleanupFailed is returned alongside a successful delete whose files could not be removed.
const MsgStorageCleanupFailed = "Data dihapus, tapi gagal menghapus file dari storage."

// Upload is one file received from a multipart form.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// ContentStorageConfig tunes upload validation for content services.
type ContentStorageConfig struct {
	MaxFileSize   int64
	ImageMIMEs    []string
	MaterialMIMEs []string
	SignedURLTTL  time.Duration
}

func (c ContentStorageConfig) withDefaults() ContentStorageConfig {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 20 * 1024 * 1024
	}
	if len(c.ImageMIMEs) == 0 {
		c.ImageMIMEs = []string{"image/*", "video/*", "audio/*"}
	}
	if c.SignedURLTTL <= 0 {
		c.SignedURLTTL = 5 * time.Minute
	}
	return c
}

// fileKeeper stores and removes content objects and reports on the storage metrics.
type fileKeeper struct {
	store   storage.ObjectStore
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ContentStorageConfig
	now     func() time.Time
}

func newFileKeeper(store storage.ObjectStore, metrics *MetricsService, logger *zap.Logger, cfg ContentStorageConfig) *fileKeeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fileKeeper{store: store, metrics: metrics, logger: logger, cfg: cfg.withDefaults(), now: time.Now}
}

// save validates the upload and writes it under a timestamped object name.
func (k *fileKeeper) save(ctx context.Context, bucket string, up *Upload, allowed []string) (string, error) {
	if up == nil || up.Content == nil || up.Size <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if up.Size > k.cfg.MaxFileSize {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", k.cfg.MaxFileSize))
	}
	mimeType, err := storage.DetectMIME(up.Content)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrValidation, "failed to read upload")
	}
	if !storage.MIMEAllowed(mimeType, allowed) {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s not allowed", mimeType))
	}
	name := storage.ObjectName(up.Filename, k.now())
	err = k.store.Put(ctx, bucket, name, up.Content, up.Size, mimeType)
	k.metrics.ObserveStorageOp(bucket, "put", err)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrStorage, "failed to upload file")
	}
	return name, nil
}

// remove deletes the non-empty paths. Failures are logged and returned.
func (k *fileKeeper) remove(ctx context.Context, bucket string, paths ...*string) error {
	var keys []string
	for _, p := range paths {
		if p != nil && strings.TrimSpace(*p) != "" {
			keys = append(keys, *p)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	err := k.store.Remove(ctx, bucket, keys...)
	k.metrics.ObserveStorageOp(bucket, "remove", err)
	if err != nil {
		k.logger.Warn("failed to remove stored files", zap.String("bucket", bucket), zap.Strings("paths", keys), zap.Error(err))
	}
	return err
}

func (k *fileKeeper) publicURL(bucket string, path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return k.store.PublicURL(bucket, *path)
}

func (k *fileKeeper) signedURL(ctx context.Context, bucket, path string) (string, error) {
	url, err := k.store.SignedURL(ctx, bucket, path, k.cfg.SignedURLTTL)
	k.metrics.ObserveStorageOp(bucket, "sign", err)
	return url, err
}

// contentAudit writes a best-effort audit row for a content mutation.
func contentAudit(ctx context.Context, audit auditWriter, logger *zap.Logger, action, resource, id, actorID string, payload interface{}, meta models.RequestMeta) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &id,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if payload != nil {
		entry.NewValues, _ = json.Marshal(payload)
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record content audit log", zap.String("resource", resource), zap.Error(err))
	}
}

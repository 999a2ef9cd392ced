package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

type objectOpener interface {
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, *storage.ObjectInfo, error)
}

type tokenParser interface {
	Parse(token string, allowExpired bool) (bucket, relPath string, expiresAt time.Time, err error)
}

// FileHandler streams objects kept by the local storage driver. Private
// buckets require a signed token bound to the exact bucket and path.
type FileHandler struct {
	store  objectOpener
	signer tokenParser
}

// NewFileHandler constructs the handler.
func NewFileHandler(store objectOpener, signer tokenParser) *FileHandler {
	return &FileHandler{store: store, signer: signer}
}

// Serve godoc
// @Summary Download a stored file
// @Tags Files
// @Produce octet-stream
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Param token query string false "Signed token for private buckets"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{bucket}/{path} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	bucket := c.Param("bucket")
	objectPath := strings.TrimPrefix(c.Param("path"), "/")
	if !storage.KnownBucket(bucket) || objectPath == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}

	if !storage.IsPublicBucket(bucket) {
		if h.signer == nil {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		tokBucket, tokPath, _, err := h.signer.Parse(c.Query("token"), false)
		if err != nil || tokBucket != bucket || tokPath != objectPath {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
			return
		}
	}

	reader, info, err := h.store.Open(c.Request.Context(), bucket, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrStorage, "failed to open file"))
		return
	}
	defer reader.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !storage.IsPublicBucket(bucket) {
		c.Header("Cache-Control", "private, no-store")
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, reader, nil)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/middleware"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := middleware.Claims(c)
	return claims
}

// mustClaims writes a 401 when the caller is anonymous.
func mustClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims, ok
}

// bindJSON decodes the body into dst and writes a validation error naming
// what on failure.
func bindJSON(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, what))
		return false
	}
	return true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// formUpload opens an optional multipart file. The returned closer is a no-op when no file was sent.
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid "+field+" upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid "+field+" upload")
	}
	return &service.Upload{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, nil
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type settingService interface {
	List(ctx context.Context) ([]dto.SettingItem, error)
	ListPublic(ctx context.Context, keys []string) ([]dto.SettingItem, error)
	BulkUpsert(ctx context.Context, req dto.BulkUpsertSettingsRequest, actorID string, meta models.RequestMeta) ([]dto.SettingItem, error)
}

type consultationService interface {
	Links(ctx context.Context) dto.ConsultationLinks
}

// SettingHandler exposes site settings and the consultation links derived from them.
type SettingHandler struct {
	service      settingService
	consultation consultationService
}

// NewSettingHandler builds a new handler.
func NewSettingHandler(service settingService, consultation consultationService) *SettingHandler {
	return &SettingHandler{service: service, consultation: consultation}
}

// ListPublic godoc
// @Summary Public site settings
// @Tags Settings
// @Produce json
// @Param keys query string false "Comma separated keys"
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingHandler) ListPublic(c *gin.Context) {
	var keys []string
	if raw := strings.TrimSpace(c.Query("keys")); raw != "" {
		keys = strings.Split(raw, ",")
	}
	items, err := h.service.ListPublic(c.Request.Context(), keys)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// List godoc
// @Summary All stored settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// BulkUpsert godoc
// @Summary Upsert settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpsertSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/settings [put]
func (h *SettingHandler) BulkUpsert(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.BulkUpsertSettingsRequest
	if !bindJSON(c, &req, "invalid settings payload") {
		return
	}
	items, err := h.service.BulkUpsert(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Consultation godoc
// @Summary Consultation contact links
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /consultation [get]
func (h *SettingHandler) Consultation(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.consultation.Links(c.Request.Context()), nil)
}

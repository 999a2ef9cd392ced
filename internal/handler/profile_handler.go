package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req dto.UpdateProfileRequest, meta models.RequestMeta) (*models.Profile, error)
	UpdateNotifications(ctx context.Context, userID string, req dto.UpdateNotificationRequest, meta models.RequestMeta) (*models.Profile, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), claims.UserID, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateNotifications godoc
// @Summary Toggle email notifications
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateNotificationRequest true "Notification flag"
// @Success 200 {object} response.Envelope
// @Router /me/notifications [patch]
func (h *ProfileHandler) UpdateNotifications(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	profile, err := h.service.UpdateNotifications(c.Request.Context(), claims.UserID, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

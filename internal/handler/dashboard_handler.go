package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) *dto.AdminDashboardResponse
	Home(ctx context.Context) (*dto.HomeResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Back-office counters
// @Description Students, materials, notification subscribers and accounts. A failing counter is null.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Admin(c.Request.Context()), nil)
}

// Home godoc
// @Summary Landing page content
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /home [get]
func (h *DashboardHandler) Home(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	home, cacheHit, err := h.service.Home(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.MarkCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, home, nil)
}

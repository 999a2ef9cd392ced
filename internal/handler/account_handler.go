package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type accountService interface {
	PageSize() int
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	UpdateRole(ctx context.Context, id string, req dto.UpdateRoleRequest, actorID string, meta models.RequestMeta) (*models.Profile, error)
	Count(ctx context.Context, rawRole string) (*dto.AccountCountResponse, error)
	KPIs(ctx context.Context) dto.AccountKPIResponse
	Export(ctx context.Context, filter models.ProfileFilter, format string) (*service.ExportFile, error)
}

// AccountHandler exposes the account administration endpoints.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(svc accountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Param role query string false "Role tab: all, siswa, guru, admin"
// @Param search query string false "Name or email substring"
// @Param sort query string false "created_at_desc, created_at_asc, name_asc, name_desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.Page = intQuery(c, "page", 1)
	filter.PageSize = intQuery(c, "page_size", h.service.PageSize())

	profiles, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination)
}

// Get godoc
// @Summary Account detail
// @Tags Accounts
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateRole godoc
// @Summary Change account role
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{id}/role [patch]
func (h *AccountHandler) UpdateRole(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}
	profile, err := h.service.UpdateRole(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// KPIs godoc
// @Summary Account counters per role
// @Tags Accounts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /accounts/kpis [get]
func (h *AccountHandler) KPIs(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.KPIs(c.Request.Context()), nil)
}

// Count godoc
// @Summary Count accounts for one role
// @Tags Accounts
// @Produce json
// @Param role query string false "Role or all"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts/count [get]
func (h *AccountHandler) Count(c *gin.Context) {
	res, err := h.service.Count(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export the account roster
// @Tags Accounts
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param role query string false "Role filter"
// @Param search query string false "Search filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /accounts/export [get]
func (h *AccountHandler) Export(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *AccountHandler) filterFromQuery(c *gin.Context) (models.ProfileFilter, error) {
	role, err := models.ParseRoleFilter(c.Query("role"))
	if err != nil {
		return models.ProfileFilter{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	sortBy, sortOrder := models.ParseProfileSort(c.Query("sort"))
	return models.ProfileFilter{
		Role:      role,
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}, nil
}

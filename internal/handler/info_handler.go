package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type infoService interface {
	ListPublic(ctx context.Context, category string, page, pageSize int) ([]models.InfoItem, *models.Pagination, error)
	ListAdmin(ctx context.Context, filter models.ContentFilter) ([]models.InfoItem, *models.Pagination, error)
	GetPublic(ctx context.Context, id string) (*models.InfoItem, error)
	Get(ctx context.Context, id string) (*models.InfoItem, error)
	Create(ctx context.Context, req dto.InfoItemRequest, image *service.Upload, actorID string, meta models.RequestMeta) (*models.InfoItem, error)
	Update(ctx context.Context, id string, req dto.InfoItemRequest, image *service.Upload, actorID string, meta models.RequestMeta) (*models.InfoItem, error)
	Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error)
}

// InfoHandler exposes the info board endpoints.
type InfoHandler struct {
	service infoService
}

// NewInfoHandler constructs the handler.
func NewInfoHandler(svc infoService) *InfoHandler {
	return &InfoHandler{service: svc}
}

// ListPublic godoc
// @Summary Published info items
// @Tags Info
// @Produce json
// @Param category query string false "info_pekerjaan, prestasi, umum"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /info [get]
func (h *InfoHandler) ListPublic(c *gin.Context) {
	items, pagination, err := h.service.ListPublic(c.Request.Context(), c.Query("category"), intQuery(c, "page", 1), intQuery(c, "page_size", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetPublic godoc
// @Summary Published info detail
// @Tags Info
// @Produce json
// @Param id path string true "Info ID"
// @Success 200 {object} response.Envelope
// @Router /info/{id} [get]
func (h *InfoHandler) GetPublic(c *gin.Context) {
	item, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ListAdmin godoc
// @Summary All info items
// @Tags Info
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/info [get]
func (h *InfoHandler) ListAdmin(c *gin.Context) {
	items, pagination, err := h.service.ListAdmin(c.Request.Context(), contentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Info detail for editors
// @Tags Info
// @Produce json
// @Param id path string true "Info ID"
// @Success 200 {object} response.Envelope
// @Router /admin/info/{id} [get]
func (h *InfoHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create info item
// @Tags Info
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param content formData string true "Body"
// @Param link formData string false "External link"
// @Param image formData file false "Image"
// @Success 201 {object} response.Envelope
// @Router /admin/info [post]
func (h *InfoHandler) Create(c *gin.Context) {
	h.write(c, "")
}

// Update godoc
// @Summary Update info item
// @Tags Info
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Info ID"
// @Param remove_image formData bool false "Drop the current image"
// @Param image formData file false "Replacement image"
// @Success 200 {object} response.Envelope
// @Router /admin/info/{id} [put]
func (h *InfoHandler) Update(c *gin.Context) {
	h.write(c, c.Param("id"))
}

// Delete godoc
// @Summary Delete info item
// @Tags Info
// @Produce json
// @Param id path string true "Info ID"
// @Success 200 {object} response.Envelope
// @Router /admin/info/{id} [delete]
func (h *InfoHandler) Delete(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

func (h *InfoHandler) write(c *gin.Context, id string) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.InfoItemRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid info payload"))
		return
	}
	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeImage()

	if id == "" {
		item, err := h.service.Create(c.Request.Context(), req, image, claims.UserID, requestMeta(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, item)
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req, image, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

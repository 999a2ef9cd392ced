package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type materialService interface {
	ListPublic(ctx context.Context, rawMateriKe, sort string, page int) (*dto.MaterialPage, error)
	ListAdmin(ctx context.Context, filter models.MaterialFilter) (*dto.MaterialPage, error)
	GetPublic(ctx context.Context, id string) (*models.Material, error)
	Get(ctx context.Context, id string) (*models.Material, error)
	DownloadURL(ctx context.Context, id string, caller *models.JWTClaims) (*dto.DownloadURLResponse, error)
	Create(ctx context.Context, req dto.MaterialRequest, uploads service.MaterialUploads, author, actorID string, meta models.RequestMeta) (*models.Material, error)
	Update(ctx context.Context, id string, req dto.MaterialRequest, uploads service.MaterialUploads, actorID string, meta models.RequestMeta) (*models.Material, error)
	Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error)
}

// MaterialHandler exposes learning material endpoints.
type MaterialHandler struct {
	service materialService
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(svc materialService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

// ListPublic godoc
// @Summary Published materials
// @Tags Materials
// @Produce json
// @Param materi_ke query string false "Material number, or a title search"
// @Param sort query string false "latest or order"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) ListPublic(c *gin.Context) {
	page, err := h.service.ListPublic(c.Request.Context(), c.Query("materi_ke"), c.Query("sort"), intQuery(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// GetPublic godoc
// @Summary Published material detail
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) GetPublic(c *gin.Context) {
	item, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Download godoc
// @Summary Signed download link
// @Description Issues a short lived URL to the private material file. Requires a signed-in caller.
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	res, err := h.service.DownloadURL(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListAdmin godoc
// @Summary All materials
// @Tags Materials
// @Produce json
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /admin/materials [get]
func (h *MaterialHandler) ListAdmin(c *gin.Context) {
	page, err := h.service.ListAdmin(c.Request.Context(), models.MaterialFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Sort:     c.Query("sort"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// Get godoc
// @Summary Material detail for editors
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /admin/materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param materi_ke formData int true "Material number"
// @Param title formData string true "Title"
// @Param type formData string true "dokumen, video, audio, gambar, tautan"
// @Param external_url formData string false "Required for tautan"
// @Param preview formData file false "Preview image"
// @Param file formData file false "Payload"
// @Success 201 {object} response.Envelope
// @Router /admin/materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	h.write(c, "")
}

// Update godoc
// @Summary Update material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /admin/materials/{id} [put]
func (h *MaterialHandler) Update(c *gin.Context) {
	h.write(c, c.Param("id"))
}

// Delete godoc
// @Summary Delete material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /admin/materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
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

func (h *MaterialHandler) write(c *gin.Context, id string) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.MaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid material payload"))
		return
	}
	preview, closePreview, err := formUpload(c, "preview")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closePreview()
	file, closeFile, err := formUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	uploads := service.MaterialUploads{Preview: preview, File: file}
	if id == "" {
		item, err := h.service.Create(c.Request.Context(), req, uploads, claims.Email, claims.UserID, requestMeta(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, item)
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req, uploads, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

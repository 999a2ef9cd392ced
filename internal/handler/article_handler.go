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

type articleService interface {
	ListPublic(ctx context.Context, category string, page, pageSize int) ([]models.Article, *models.Pagination, error)
	ListAdmin(ctx context.Context, filter models.ContentFilter) ([]models.Article, *models.Pagination, error)
	GetPublic(ctx context.Context, id string) (*models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, req dto.ArticleRequest, cover *service.Upload, actorID string, meta models.RequestMeta) (*models.Article, error)
	Update(ctx context.Context, id string, req dto.ArticleRequest, cover *service.Upload, actorID string, meta models.RequestMeta) (*models.Article, error)
	Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error)
}

// ArticleHandler exposes public and back-office article endpoints.
type ArticleHandler struct {
	service articleService
}

// NewArticleHandler constructs the handler.
func NewArticleHandler(svc articleService) *ArticleHandler {
	return &ArticleHandler{service: svc}
}

// ListPublic godoc
// @Summary Published articles
// @Tags Articles
// @Produce json
// @Param category query string false "konseling, karir, pengembangan_diri"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /articles [get]
func (h *ArticleHandler) ListPublic(c *gin.Context) {
	items, pagination, err := h.service.ListPublic(c.Request.Context(), c.Query("category"), intQuery(c, "page", 1), intQuery(c, "page_size", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetPublic godoc
// @Summary Published article detail
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /articles/{id} [get]
func (h *ArticleHandler) GetPublic(c *gin.Context) {
	item, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ListAdmin godoc
// @Summary All articles including drafts
// @Tags Articles
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /admin/articles [get]
func (h *ArticleHandler) ListAdmin(c *gin.Context) {
	items, pagination, err := h.service.ListAdmin(c.Request.Context(), contentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Article detail for editors
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Router /admin/articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create article
// @Tags Articles
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param content formData string true "Body"
// @Param is_published formData bool false "Published"
// @Param cover formData file false "Cover image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.ArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid article payload"))
		return
	}
	cover, closeCover, err := formUpload(c, "cover")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	item, err := h.service.Create(c.Request.Context(), req, cover, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update article
// @Tags Articles
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Article ID"
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param content formData string true "Body"
// @Param is_published formData bool false "Published"
// @Param remove_cover formData bool false "Drop the current cover"
// @Param cover formData file false "Replacement cover"
// @Success 200 {object} response.Envelope
// @Router /admin/articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req dto.ArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid article payload"))
		return
	}
	cover, closeCover, err := formUpload(c, "cover")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, cover, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete article
// @Description Deletes the row, then the cover. A storage failure is reported as a warning.
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Router /admin/articles/{id} [delete]
func (h *ArticleHandler) Delete(c *gin.Context) {
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

func contentFilterFromQuery(c *gin.Context) models.ContentFilter {
	return models.ContentFilter{
		Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
	}
}

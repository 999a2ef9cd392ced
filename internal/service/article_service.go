package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

type articleRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.Article, int, error)
	FindByID(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
}

type articleListing struct {
	Items      []models.Article   `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// ArticleService manages counseling articles and their cover images.
type ArticleService struct {
	repo      articleRepository
	files     *fileKeeper
	cache     *CacheService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArticleService constructs an ArticleService.
func NewArticleService(repo articleRepository, store storage.ObjectStore, cache *CacheService, metrics *MetricsService, audit auditWriter, validate *validator.Validate, logger *zap.Logger, cfg ContentStorageConfig) *ArticleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{
		repo:      repo,
		files:     newFileKeeper(store, metrics, logger, cfg),
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// ListPublic returns published articles newest first, optionally by category.
func (s *ArticleService) ListPublic(ctx context.Context, category string, page, pageSize int) ([]models.Article, *models.Pagination, error) {
	filter := models.ContentFilter{
		Category:      strings.ToLower(strings.TrimSpace(category)),
		PublishedOnly: true,
		Page:          page,
		PageSize:      pageSize,
	}
	listing, _, err := readThrough(ctx, s.cache, ScopeArticles.Key(filter.Category, page, pageSize), 0, func() (articleListing, error) {
		items, pagination, err := s.list(ctx, filter)
		return articleListing{Items: items, Pagination: pagination}, err
	})
	if err != nil {
		return nil, nil, err
	}
	return listing.Items, listing.Pagination, nil
}

// Latest returns the newest published articles for the landing page.
func (s *ArticleService) Latest(ctx context.Context, limit int) ([]models.Article, error) {
	items, _, err := s.ListPublic(ctx, "", 1, limit)
	return items, err
}

// ListAdmin returns drafts and published articles for the back-office.
func (s *ArticleService) ListAdmin(ctx context.Context, filter models.ContentFilter) ([]models.Article, *models.Pagination, error) {
	filter.PublishedOnly = false
	return s.list(ctx, filter)
}

// GetPublic returns a published article; drafts are reported as not found.
func (s *ArticleService) GetPublic(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
	}
	return article, nil
}

// Get returns an article regardless of its publication state.
func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load article")
	}
	s.decorate(article)
	return article, nil
}

// Create stores a new article with an optional cover image.
func (s *ArticleService) Create(ctx context.Context, req dto.ArticleRequest, cover *Upload, actorID string, meta models.RequestMeta) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid article payload")
	}
	article := &models.Article{
		Title:       strings.TrimSpace(req.Title),
		Category:    models.ArticleCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		Content:     req.Content,
		IsPublished: req.IsPublished,
	}
	if cover != nil {
		path, err := s.files.save(ctx, storage.BucketArticleCovers, cover, s.files.cfg.ImageMIMEs)
		if err != nil {
			return nil, err
		}
		article.CoverPath = &path
	}
	if err := s.repo.Create(ctx, article); err != nil {
		_ = s.files.remove(ctx, storage.BucketArticleCovers, article.CoverPath)
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create article")
	}
	s.afterWrite(ctx, models.AuditActionContentCreate, article, actorID, meta)
	return article, nil
}

// Update overwrites an article. A new cover replaces the old one, which is removed best-effort.
func (s *ArticleService) Update(ctx context.Context, id string, req dto.ArticleRequest, cover *Upload, actorID string, meta models.RequestMeta) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid article payload")
	}
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCover := article.CoverPath

	article.Title = strings.TrimSpace(req.Title)
	article.Category = models.ArticleCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	article.Content = req.Content
	article.IsPublished = req.IsPublished
	switch {
	case cover != nil:
		path, err := s.files.save(ctx, storage.BucketArticleCovers, cover, s.files.cfg.ImageMIMEs)
		if err != nil {
			return nil, err
		}
		article.CoverPath = &path
	case req.RemoveCover:
		article.CoverPath = nil
	}

	if err := s.repo.Update(ctx, article); err != nil {
		if cover != nil {
			_ = s.files.remove(ctx, storage.BucketArticleCovers, article.CoverPath)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update article")
	}
	if oldCover != nil && (article.CoverPath == nil || *article.CoverPath != *oldCover) {
		_ = s.files.remove(ctx, storage.BucketArticleCovers, oldCover)
	}
	s.afterWrite(ctx, models.AuditActionContentUpdate, article, actorID, meta)
	return article, nil
}

// Delete removes the row first and then its cover. A cover cleanup failure is reported as a warning.
func (s *ArticleService) Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to delete article")
	}
	resp := &dto.DeleteContentResponse{ID: id}
	if err := s.files.remove(ctx, storage.BucketArticleCovers, article.CoverPath); err != nil {
		resp.Warning = MsgStorageCleanupFailed
	}
	s.afterWrite(ctx, models.AuditActionContentDelete, article, actorID, meta)
	return resp, nil
}

func (s *ArticleService) list(ctx context.Context, filter models.ContentFilter) ([]models.Article, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list articles")
	}
	if items == nil {
		items = []models.Article{}
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *ArticleService) decorate(article *models.Article) {
	article.CoverURL = s.files.publicURL(storage.BucketArticleCovers, article.CoverPath)
}

func (s *ArticleService) afterWrite(ctx context.Context, action string, article *models.Article, actorID string, meta models.RequestMeta) {
	_ = s.cache.Invalidate(ctx, ScopeArticles)
	s.decorate(article)
	contentAudit(ctx, s.audit, s.logger, action, "articles", article.ID, actorID, map[string]interface{}{
		"title":        article.Title,
		"category":     article.Category,
		"is_published": article.IsPublished,
	}, meta)
}

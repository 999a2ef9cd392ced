package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

type infoRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.InfoItem, int, error)
	FindByID(ctx context.Context, id string) (*models.InfoItem, error)
	Create(ctx context.Context, item *models.InfoItem) error
	Update(ctx context.Context, item *models.InfoItem) error
	Delete(ctx context.Context, id string) error
}

type infoListing struct {
	Items      []models.InfoItem  `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// InfoService manages job postings, achievements and general announcements.
type InfoService struct {
	repo      infoRepository
	files     *fileKeeper
	cache     *CacheService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInfoService constructs an InfoService.
func NewInfoService(repo infoRepository, store storage.ObjectStore, cache *CacheService, metrics *MetricsService, audit auditWriter, validate *validator.Validate, logger *zap.Logger, cfg ContentStorageConfig) *InfoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterPortalValidations(validate)
	return &InfoService{
		repo:      repo,
		files:     newFileKeeper(store, metrics, logger, cfg),
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// ListPublic returns published items newest first. An unknown category is rejected.
func (s *InfoService) ListPublic(ctx context.Context, category string, page, pageSize int) ([]models.InfoItem, *models.Pagination, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !models.InfoCategory(category).Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown info category %q", category))
	}
	filter := models.ContentFilter{Category: category, PublishedOnly: true, Page: page, PageSize: pageSize}
	listing, _, err := readThrough(ctx, s.cache, ScopeInfo.Key(category, page, pageSize), 0, func() (infoListing, error) {
		items, pagination, err := s.list(ctx, filter)
		return infoListing{Items: items, Pagination: pagination}, err
	})
	if err != nil {
		return nil, nil, err
	}
	return listing.Items, listing.Pagination, nil
}

// Latest returns the newest published items for the landing page.
func (s *InfoService) Latest(ctx context.Context, limit int) ([]models.InfoItem, error) {
	items, _, err := s.ListPublic(ctx, "", 1, limit)
	return items, err
}

// ListAdmin returns every item for the back-office.
func (s *InfoService) ListAdmin(ctx context.Context, filter models.ContentFilter) ([]models.InfoItem, *models.Pagination, error) {
	filter.PublishedOnly = false
	return s.list(ctx, filter)
}

// GetPublic returns a published item.
func (s *InfoService) GetPublic(ctx context.Context, id string) (*models.InfoItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "info not found")
	}
	return item, nil
}

// Get returns an item regardless of publication state.
func (s *InfoService) Get(ctx context.Context, id string) (*models.InfoItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "info not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load info")
	}
	s.decorate(item)
	return item, nil
}

// Create stores a new item with an optional image.
func (s *InfoService) Create(ctx context.Context, req dto.InfoItemRequest, image *Upload, actorID string, meta models.RequestMeta) (*models.InfoItem, error) {
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid info payload")
	}
	item := &models.InfoItem{
		Title:       strings.TrimSpace(req.Title),
		Category:    models.InfoCategory(req.Category),
		Content:     req.Content,
		Link:        trimmedOrNil(req.Link),
		IsPublished: req.IsPublished,
	}
	if image != nil {
		path, err := s.files.save(ctx, storage.BucketInfoImages, image, s.files.cfg.ImageMIMEs)
		if err != nil {
			return nil, err
		}
		item.ImagePath = &path
	}
	if err := s.repo.Create(ctx, item); err != nil {
		_ = s.files.remove(ctx, storage.BucketInfoImages, item.ImagePath)
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create info")
	}
	s.afterWrite(ctx, models.AuditActionContentCreate, item, actorID, meta)
	return item, nil
}

// Update overwrites an item; a replaced image is removed best-effort.
func (s *InfoService) Update(ctx context.Context, id string, req dto.InfoItemRequest, image *Upload, actorID string, meta models.RequestMeta) (*models.InfoItem, error) {
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid info payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldImage := item.ImagePath

	item.Title = strings.TrimSpace(req.Title)
	item.Category = models.InfoCategory(req.Category)
	item.Content = req.Content
	item.Link = trimmedOrNil(req.Link)
	item.IsPublished = req.IsPublished
	switch {
	case image != nil:
		path, err := s.files.save(ctx, storage.BucketInfoImages, image, s.files.cfg.ImageMIMEs)
		if err != nil {
			return nil, err
		}
		item.ImagePath = &path
	case req.RemoveImage:
		item.ImagePath = nil
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if image != nil {
			_ = s.files.remove(ctx, storage.BucketInfoImages, item.ImagePath)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "info not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update info")
	}
	if oldImage != nil && (item.ImagePath == nil || *item.ImagePath != *oldImage) {
		_ = s.files.remove(ctx, storage.BucketInfoImages, oldImage)
	}
	s.afterWrite(ctx, models.AuditActionContentUpdate, item, actorID, meta)
	return item, nil
}

// Delete removes the row and then its image.
func (s *InfoService) Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "info not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to delete info")
	}
	resp := &dto.DeleteContentResponse{ID: id}
	if err := s.files.remove(ctx, storage.BucketInfoImages, item.ImagePath); err != nil {
		resp.Warning = MsgStorageCleanupFailed
	}
	s.afterWrite(ctx, models.AuditActionContentDelete, item, actorID, meta)
	return resp, nil
}

func (s *InfoService) list(ctx context.Context, filter models.ContentFilter) ([]models.InfoItem, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list info")
	}
	if items == nil {
		items = []models.InfoItem{}
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *InfoService) decorate(item *models.InfoItem) {
	item.ImageURL = s.files.publicURL(storage.BucketInfoImages, item.ImagePath)
}

func (s *InfoService) afterWrite(ctx context.Context, action string, item *models.InfoItem, actorID string, meta models.RequestMeta) {
	_ = s.cache.Invalidate(ctx, ScopeInfo)
	s.decorate(item)
	contentAudit(ctx, s.audit, s.logger, action, "info_items", item.ID, actorID, map[string]interface{}{
		"title":        item.Title,
		"category":     item.Category,
		"is_published": item.IsPublished,
	}, meta)
}

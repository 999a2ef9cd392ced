package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

// MaterialPageSize is the fixed page size of the public material grid.
const MaterialPageSize = 9

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, bool, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

// MaterialUploads carries the optional preview and payload files of a material form.
type MaterialUploads struct {
	Preview *Upload
	File    *Upload
}

// MaterialService manages learning materials. Previews are public; payloads
// are private and only reachable through short-lived signed URLs.
type MaterialService struct {
	repo      materialRepository
	files     *fileKeeper
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(repo materialRepository, store storage.ObjectStore, metrics *MetricsService, audit auditWriter, validate *validator.Validate, logger *zap.Logger, cfg ContentStorageConfig) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		repo:      repo,
		files:     newFileKeeper(store, metrics, logger, cfg),
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// ListPublic returns one page of published materials. rawMateriKe is the
// search box value; a non-numeric value is matched against titles instead.
func (s *MaterialService) ListPublic(ctx context.Context, rawMateriKe, sort string, page int) (*dto.MaterialPage, error) {
	filter := models.MaterialFilter{PublishedOnly: true, Sort: sort, Page: page, PageSize: MaterialPageSize}
	if raw := strings.TrimSpace(rawMateriKe); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.MateriKe = &n
		} else {
			filter.Search = raw
		}
	}
	return s.list(ctx, filter)
}

// ListAdmin returns every material, newest first.
func (s *MaterialService) ListAdmin(ctx context.Context, filter models.MaterialFilter) (*dto.MaterialPage, error) {
	filter.PublishedOnly = false
	return s.list(ctx, filter)
}

// Count returns the number of stored materials.
func (s *MaterialService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// GetPublic returns a published material.
func (s *MaterialService) GetPublic(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !material.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	return material, nil
}

// Get returns a material regardless of publication state.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load material")
	}
	s.decorate(material)
	return material, nil
}

// DownloadURL issues a signed link to the private payload for a signed-in caller.
func (s *MaterialService) DownloadURL(ctx context.Context, id string, caller *models.JWTClaims) (*dto.DownloadURLResponse, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to download materials")
	}
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !material.IsPublished && !caller.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	if material.FilePath == nil || *material.FilePath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	url, err := s.files.signedURL(ctx, storage.BucketMaterials, *material.FilePath)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrStorage, "failed to create download link")
	}
	return &dto.DownloadURLResponse{URL: url, ExpiresIn: int64(s.files.cfg.SignedURLTTL.Seconds())}, nil
}

// Create stores a new material authored by the caller's email.
func (s *MaterialService) Create(ctx context.Context, req dto.MaterialRequest, uploads MaterialUploads, author, actorID string, meta models.RequestMeta) (*models.Material, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	material := &models.Material{Author: author}
	applyMaterialRequest(material, req)

	if err := s.storeUploads(ctx, material, uploads); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, material); err != nil {
		s.discardUploads(ctx, material, uploads)
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create material")
	}
	s.afterWrite(ctx, models.AuditActionContentCreate, material, actorID, meta)
	return material, nil
}

// Update overwrites a material. The author is kept and replaced files are removed best-effort.
func (s *MaterialService) Update(ctx context.Context, id string, req dto.MaterialRequest, uploads MaterialUploads, actorID string, meta models.RequestMeta) (*models.Material, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPreview, oldFile := material.PreviewPath, material.FilePath
	applyMaterialRequest(material, req)

	if err := s.storeUploads(ctx, material, uploads); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, material); err != nil {
		s.discardUploads(ctx, material, uploads)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update material")
	}
	if uploads.Preview != nil {
		_ = s.files.remove(ctx, storage.BucketPreviews, oldPreview)
	}
	if uploads.File != nil {
		_ = s.files.remove(ctx, storage.BucketMaterials, oldFile)
	}
	s.afterWrite(ctx, models.AuditActionContentUpdate, material, actorID, meta)
	return material, nil
}

// Delete removes the row, then the payload and preview objects. Storage
// failures do not undo the delete; they surface as a warning.
func (s *MaterialService) Delete(ctx context.Context, id, actorID string, meta models.RequestMeta) (*dto.DeleteContentResponse, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to delete material")
	}
	resp := &dto.DeleteContentResponse{ID: id}
	fileErr := s.files.remove(ctx, storage.BucketMaterials, material.FilePath)
	previewErr := s.files.remove(ctx, storage.BucketPreviews, material.PreviewPath)
	if fileErr != nil || previewErr != nil {
		resp.Warning = MsgStorageCleanupFailed
	}
	s.afterWrite(ctx, models.AuditActionContentDelete, material, actorID, meta)
	return resp, nil
}

func (s *MaterialService) validate(req dto.MaterialRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "invalid material payload")
	}
	if models.MaterialType(req.Type) == models.MaterialTypeTautan && strings.TrimSpace(req.ExternalURL) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "external_url is required for tautan materials")
	}
	return nil
}

func (s *MaterialService) storeUploads(ctx context.Context, material *models.Material, uploads MaterialUploads) error {
	if uploads.Preview != nil {
		path, err := s.files.save(ctx, storage.BucketPreviews, uploads.Preview, s.files.cfg.ImageMIMEs)
		if err != nil {
			return err
		}
		material.PreviewPath = &path
	}
	if uploads.File != nil {
		path, err := s.files.save(ctx, storage.BucketMaterials, uploads.File, s.files.cfg.MaterialMIMEs)
		if err != nil {
			if uploads.Preview != nil {
				_ = s.files.remove(ctx, storage.BucketPreviews, material.PreviewPath)
			}
			return err
		}
		material.FilePath = &path
	}
	return nil
}

func (s *MaterialService) discardUploads(ctx context.Context, material *models.Material, uploads MaterialUploads) {
	if uploads.Preview != nil {
		_ = s.files.remove(ctx, storage.BucketPreviews, material.PreviewPath)
	}
	if uploads.File != nil {
		_ = s.files.remove(ctx, storage.BucketMaterials, material.FilePath)
	}
}

func (s *MaterialService) list(ctx context.Context, filter models.MaterialFilter) (*dto.MaterialPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = MaterialPageSize
	}
	if filter.Sort != models.MaterialSortOrder {
		filter.Sort = models.MaterialSortLatest
	}
	items, hasMore, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list materials")
	}
	if items == nil {
		items = []models.Material{}
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return &dto.MaterialPage{Items: items, Page: filter.Page, HasMore: hasMore}, nil
}

func (s *MaterialService) decorate(material *models.Material) {
	material.PreviewURL = s.files.publicURL(storage.BucketPreviews, material.PreviewPath)
}

func (s *MaterialService) afterWrite(ctx context.Context, action string, material *models.Material, actorID string, meta models.RequestMeta) {
	s.decorate(material)
	contentAudit(ctx, s.audit, s.logger, action, "materials", material.ID, actorID, map[string]interface{}{
		"title":     material.Title,
		"materi_ke": material.MateriKe,
		"type":      material.Type,
	}, meta)
}

func applyMaterialRequest(material *models.Material, req dto.MaterialRequest) {
	material.MateriKe = req.MateriKe
	material.Title = strings.TrimSpace(req.Title)
	material.Type = models.MaterialType(req.Type)
	material.Description = trimmedOrNil(req.Description)
	material.ExternalURL = trimmedOrNil(req.ExternalURL)
	material.IsPublished = req.IsPublished
}

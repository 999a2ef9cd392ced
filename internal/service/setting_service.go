package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

type settingRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	BulkUpsert(ctx context.Context, settings []models.Setting) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var allowedSettings = map[string]struct{}{
	models.SettingHero:            {},
	models.SettingConsultWhatsApp: {},
	models.SettingConsultEmail:    {},
}

// SettingService manages the JSON site settings edited from the back-office.
type SettingService struct {
	repo      settingRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingService constructs a SettingService.
func NewSettingService(repo settingRepository, audit auditWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SettingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns every stored setting.
func (s *SettingService) List(ctx context.Context) ([]dto.SettingItem, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list settings")
	}
	return toSettingItems(rows), nil
}

// ListPublic reads the requested keys. Unknown keys are ignored and an empty
// request returns every allowed key.
func (s *SettingService) ListPublic(ctx context.Context, keys []string) ([]dto.SettingItem, error) {
	wanted := filterSettingKeys(keys)
	items, _, err := readThrough(ctx, s.cache, ScopeSettings.Key(strings.Join(wanted, ",")), 0, func() ([]dto.SettingItem, error) {
		rows, err := s.repo.ListByKeys(ctx, wanted)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load settings")
		}
		return toSettingItems(rows), nil
	})
	return items, err
}

// Values decodes the requested keys into a key to raw JSON map.
func (s *SettingService) Values(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	items, err := s.ListPublic(ctx, keys)
	if err != nil {
		return nil, err
	}
	values := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		values[item.Key] = item.Value
	}
	return values, nil
}

// BulkUpsert writes all items at once. Each value must be a JSON object.
func (s *SettingService) BulkUpsert(ctx context.Context, req dto.BulkUpsertSettingsRequest, actorID string, meta models.RequestMeta) ([]dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid settings payload")
	}

	rows := make([]models.Setting, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		key := strings.TrimSpace(item.Key)
		if _, ok := allowedSettings[key]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown setting %q", key))
		}
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate setting %q", key))
		}
		seen[key] = struct{}{}
		value, err := compactObject(item.Value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("setting %s: %s", key, err.Error()))
		}
		row := models.Setting{Key: key, Value: value}
		if actorID != "" {
			actor := actorID
			row.UpdatedBy = &actor
		}
		rows = append(rows, row)
	}

	if err := s.repo.BulkUpsert(ctx, rows); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to save settings")
	}
	_ = s.cache.Invalidate(ctx, ScopeSettings)

	items := toSettingItems(rows)
	s.recordAudit(ctx, actorID, items, meta)
	return items, nil
}

func (s *SettingService) recordAudit(ctx context.Context, actorID string, items []dto.SettingItem, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(items)
	entry := &models.AuditLog{
		Action:    models.AuditActionSettingsUpdate,
		Resource:  "settings",
		NewValues: payload,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record settings audit log", zap.Error(err))
	}
}

func filterSettingKeys(keys []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if _, ok := allowedSettings[key]; !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	if len(out) == 0 {
		out = []string{models.SettingConsultEmail, models.SettingConsultWhatsApp, models.SettingHero}
	}
	return out
}

func compactObject(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("value must be a JSON object")
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("value must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toSettingItems(rows []models.Setting) []dto.SettingItem {
	items := make([]dto.SettingItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.SettingItem{Key: row.Key, Value: row.Value})
	}
	return items
}

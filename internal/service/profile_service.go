package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

type selfProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateSelf(ctx context.Context, profile *models.Profile) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ProfileService lets a signed-in user manage their own profile.
type ProfileService struct {
	repo      selfProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo selfProfileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load profile")
	}
	return profile, nil
}

// Update applies the whitelisted self-editable fields. Role and email are never touched.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest, meta models.RequestMeta) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid profile payload")
	}
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *profile

	if req.Name != nil {
		profile.Name = trimmedOrNil(*req.Name)
	}
	if req.Phone != nil {
		profile.Phone = trimmedOrNil(*req.Phone)
	}
	if req.Address != nil {
		profile.Address = trimmedOrNil(*req.Address)
	}
	if req.NotifyEmail != nil {
		profile.NotifyEmail = *req.NotifyEmail
	}
	return s.save(ctx, &before, profile, meta)
}

// UpdateNotifications toggles the email notification preference.
func (s *ProfileService) UpdateNotifications(ctx context.Context, userID string, req dto.UpdateNotificationRequest, meta models.RequestMeta) (*models.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *profile
	profile.NotifyEmail = req.NotifyEmail
	return s.save(ctx, &before, profile, meta)
}

func (s *ProfileService) save(ctx context.Context, before, after *models.Profile, meta models.RequestMeta) (*models.Profile, error) {
	if err := s.repo.UpdateSelf(ctx, after); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update profile")
	}

	oldPayload, _ := json.Marshal(selfFields(before))
	newPayload, _ := json.Marshal(selfFields(after))
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &after.ID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   "profiles",
		ResourceID: &after.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record profile update audit log", zap.Error(err))
	}
	return after, nil
}

func selfFields(p *models.Profile) map[string]interface{} {
	return map[string]interface{}{
		"name":         p.Name,
		"phone":        p.Phone,
		"address":      p.Address,
		"notify_email": p.NotifyEmail,
	}
}

func trimmedOrNil(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// Error messages returned verbatim by the delete-user function.
const (
	MsgDeleteProfileLoad = "Failed to load profile role"
	MsgDeleteForbidden   = "Forbidden"
	MsgDeleteMissingID   = "Missing userId"
	MsgDeleteSelf        = "You cannot delete your own account"
	MsgDeleteNotFound    = "User not found"
	MsgProfileCleanup    = "Akun dihapus, tapi profil gagal dibersihkan."
)

type identityDeleter interface {
	Delete(ctx context.Context, id string) error
}

type deletionProfileStore interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserDeletionService implements the privileged account delete. The caller's
// role is always re-read from the profile table, never trusted from the token.
type UserDeletionService struct {
	identities identityDeleter
	profiles   deletionProfileStore
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewUserDeletionService constructs a UserDeletionService.
func NewUserDeletionService(identities identityDeleter, profiles deletionProfileStore, metrics *MetricsService, logger *zap.Logger) *UserDeletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserDeletionService{identities: identities, profiles: profiles, metrics: metrics, logger: logger}
}

// Delete removes the auth identity of target and then its profile row. A
// profile cleanup failure yields a partial outcome instead of an error.
func (s *UserDeletionService) Delete(ctx context.Context, callerID string, target interface{}, meta models.RequestMeta) (*models.DeleteUserResult, error) {
	if callerID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	caller, err := s.profiles.FindByID(ctx, callerID)
	if err != nil || caller == nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, MsgDeleteProfileLoad)
	}
	if caller.Role != models.RoleAdmin {
		return nil, appErrors.New(appErrors.ErrForbidden.Code, http.StatusForbidden, MsgDeleteForbidden)
	}

	userID, ok := target.(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, MsgDeleteMissingID)
	}
	if userID == callerID {
		return nil, appErrors.New(appErrors.ErrSelfAction.Code, http.StatusBadRequest, MsgDeleteSelf)
	}

	var snapshot *models.Profile
	if p, err := s.profiles.FindByID(ctx, userID); err == nil {
		snapshot = p
	}

	if err := s.identities.Delete(ctx, userID); err != nil {
		s.metrics.RecordAccountEvent(EventUserDelete, "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrNotFound.Code, http.StatusBadRequest, MsgDeleteNotFound)
		}
		s.logger.Error("failed to delete auth identity", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusBadRequest, err.Error())
	}

	result := &models.DeleteUserResult{UserID: userID, Outcome: models.DeleteOutcomeDeleted}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		s.logger.Warn("identity deleted but profile cleanup failed", zap.String("user_id", userID), zap.Error(err))
		result.Outcome = models.DeleteOutcomePartial
		result.Warning = MsgProfileCleanup
	}
	s.metrics.RecordAccountEvent(EventUserDelete, resultOutcomeLabel(result.Outcome))

	s.recordAudit(ctx, callerID, userID, snapshot, result, meta)
	return result, nil
}

func (s *UserDeletionService) recordAudit(ctx context.Context, callerID, userID string, snapshot *models.Profile, result *models.DeleteUserResult, meta models.RequestMeta) {
	var oldPayload []byte
	if snapshot != nil {
		oldPayload, _ = json.Marshal(map[string]interface{}{"email": snapshot.Email, "role": snapshot.Role})
	}
	newPayload, _ := json.Marshal(map[string]interface{}{"outcome": result.Outcome})
	if err := s.profiles.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &callerID,
		Action:     models.AuditActionUserDelete,
		Resource:   "auth_identities",
		ResourceID: &userID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user delete audit log", zap.Error(err))
	}
}

func resultOutcomeLabel(outcome string) string {
	if outcome == models.DeleteOutcomePartial {
		return "partial"
	}
	return "ok"
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/mailer"
)

type authIdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*models.AuthIdentity, error)
	FindByID(ctx context.Context, id string) (*models.AuthIdentity, error)
	Create(ctx context.Context, identity *models.AuthIdentity) error
	Delete(ctx context.Context, id string) error
	UpdateLastSignIn(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error
	FindPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	MarkPasswordResetUsed(ctx context.Context, id string, usedAt time.Time) error
}

type authProfileStore interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
	SingleSession      bool
	ResetURL           string
	ResetTokenExpiry   time.Duration
}

// AuthService provides authentication use cases.
type AuthService struct {
	identities authIdentityStore
	profiles   authProfileStore
	mailer     mailer.Mailer
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(identities authIdentityStore, profiles authProfileStore, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if mail == nil {
		mail = mailer.NewLogMailer(logger)
	}
	if config.ResetTokenExpiry <= 0 {
		config.ResetTokenExpiry = time.Hour
	}
	return &AuthService{identities: identities, profiles: profiles, mailer: mail, validator: validate, logger: logger, config: config}
}

// SignUp registers a new identity and its student profile. New accounts never opt into email notifications.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.UserInfo, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid sign up payload")
	}

	if _, err := s.identities.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to hash password")
	}

	identity := &models.AuthIdentity{ID: uuid.NewString(), Email: req.Email, PasswordHash: string(hash)}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create account")
	}

	profile := &models.Profile{ID: identity.ID, Email: req.Email, Role: models.RoleStudent, NotifyEmail: false}
	if req.Name != "" {
		name := req.Name
		profile.Name = &name
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.identities.Delete(ctx, identity.ID); delErr != nil {
			s.logger.Warn("failed to roll back identity after profile failure", zap.String("user_id", identity.ID), zap.Error(delErr))
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create profile")
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &identity.ID,
		Action:     models.AuditActionSignUp,
		Resource:   "auth",
		ResourceID: &identity.ID,
		NewValues:  []byte(`{"role":"siswa"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.UserInfo{ID: profile.ID, Email: profile.Email, Name: profile.DisplayName(), Role: profile.Role}, nil
}

// Login authenticates a user and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid login payload")
	}

	identity, err := s.identities.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	profile, err := s.loadProfile(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if s.config.SingleSession {
		if err := s.identities.RevokeUserRefreshTokens(ctx, identity.ID); err != nil {
			s.logger.Warn("failed to revoke previous refresh tokens", zap.Error(err))
		}
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, profile, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.identities.UpdateLastSignIn(ctx, identity.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last sign in", zap.Error(err))
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &identity.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &identity.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		User: models.UserInfo{
			ID:    profile.ID,
			Email: profile.Email,
			Name:  profile.DisplayName(),
			Role:  profile.Role,
		},
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token pair.
// The role is re-read from the profile so role changes apply on the next refresh.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid refresh payload")
	}

	storedToken, err := s.identities.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to fetch refresh token")
	}

	if !storedToken.Usable(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	profile, err := s.profiles.FindByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated account no longer exists")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load profile")
	}

	if err := s.identities.RevokeRefreshToken(ctx, storedToken.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	accessToken, newRefresh, err := s.issueTokens(ctx, profile, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	return &models.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Logout revokes the provided refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID string, meta models.RequestMeta) error {
	storedToken, err := s.identities.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load refresh token")
	}

	if storedToken.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}

	if err := s.identities.RevokeRefreshToken(ctx, storedToken.ID, time.Now().UTC()); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to revoke refresh token")
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionLogout,
		Resource:   "auth",
		ResourceID: &userID,
		NewValues:  []byte(`{"status":"logout"}`),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// ChangePassword changes the password for the given user ID.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "invalid change password payload")
	}

	identity, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionPasswordChange,
		Resource:   "auth",
		ResourceID: &userID,
		NewValues:  []byte(`{"status":"changed"}`),
	})
	return nil
}

// ForgotPassword issues a single-use reset token and mails the reset link.
// Unknown addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "invalid forgot password payload")
	}

	identity, err := s.identities.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to fetch account")
	}

	token, err := randomToken()
	if err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create reset token")
	}
	reset := &models.PasswordReset{
		UserID:    identity.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().UTC().Add(s.config.ResetTokenExpiry),
	}
	if err := s.identities.CreatePasswordReset(ctx, reset); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to store reset token")
	}

	link := s.resetLink(token)
	msg := mailer.Message{
		To:      mail.Address{Address: identity.Email},
		Subject: "Atur ulang kata sandi",
		Text:    fmt.Sprintf("Buka tautan berikut untuk mengatur ulang kata sandi Anda:\n%s\n\nTautan berlaku selama %s.", link, s.config.ResetTokenExpiry),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send password reset email", zap.String("user_id", identity.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ConfirmResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "invalid reset password payload")
	}

	reset, err := s.identities.FindPasswordReset(ctx, hashToken(req.Token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is invalid")
		}
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load reset token")
	}
	if !reset.Usable(time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is expired or used")
	}

	if err := s.identities.MarkPasswordResetUsed(ctx, reset.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is expired or used")
		}
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to consume reset token")
	}

	if err := s.setPassword(ctx, reset.UserID, req.NewPassword); err != nil {
		return err
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &reset.UserID,
		Action:     models.AuditActionPasswordChange,
		Resource:   "auth",
		ResourceID: &reset.UserID,
		NewValues:  []byte(`{"status":"reset"}`),
	})
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) loadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account has no profile")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load profile")
	}
	return profile, nil
}

func (s *AuthService) issueTokens(ctx context.Context, profile *models.Profile, ip, userAgent string) (string, *models.RefreshToken, error) {
	accessToken, _, err := s.generateAccessToken(profile)
	if err != nil {
		return "", nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create access token")
	}

	refreshTokenValue, err := randomToken()
	if err != nil {
		return "", nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create refresh token")
	}

	refreshToken := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    profile.ID,
		Token:     refreshTokenValue,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.identities.CreateRefreshToken(ctx, refreshToken); err != nil {
		return "", nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to persist refresh token")
	}
	return accessToken, refreshToken, nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to hash password")
	}
	if err := s.identities.UpdatePassword(ctx, userID, string(newHash)); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update password")
	}
	if err := s.identities.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change", zap.Error(err))
	}
	return nil
}

func (s *AuthService) generateAccessToken(profile *models.Profile) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: profile.ID,
		Role:   profile.Role,
		Email:  profile.Email,
		Name:   profile.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   profile.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) resetLink(token string) string {
	base := s.config.ResetURL
	if base == "" {
		return token
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func (s *AuthService) audit(ctx context.Context, log *models.AuditLog) {
	if err := s.profiles.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

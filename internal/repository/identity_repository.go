package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

// IdentityRepository stores sign-in credentials and refresh token sessions.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new instance of IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindByEmail returns an identity by email address.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*models.AuthIdentity, error) {
	const query = `SELECT id, email, password_hash, last_sign_in_at, created_at FROM auth_identities WHERE email = $1 LIMIT 1`
	var identity models.AuthIdentity
	if err := r.db.GetContext(ctx, &identity, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return &identity, nil
}

// FindByID returns an identity by identifier.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*models.AuthIdentity, error) {
	const query = `SELECT id, email, password_hash, last_sign_in_at, created_at FROM auth_identities WHERE id = $1 LIMIT 1`
	var identity models.AuthIdentity
	if err := r.db.GetContext(ctx, &identity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return &identity, nil
}

// Create inserts a new identity.
func (r *IdentityRepository) Create(ctx context.Context, identity *models.AuthIdentity) error {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO auth_identities (id, email, password_hash, created_at) VALUES (:id, :email, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// Delete removes an identity; refresh tokens cascade. It returns sql.ErrNoRows when nothing was deleted.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_identities WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLastSignIn updates the last_sign_in_at timestamp.
func (r *IdentityRepository) UpdateLastSignIn(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE auth_identities SET last_sign_in_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last sign in: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE auth_identities SET password_hash = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *IdentityRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *IdentityRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *IdentityRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *IdentityRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CreatePasswordReset stores a hashed reset token.
func (r *IdentityRepository) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = uuid.NewString()
	}
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at) VALUES (:id, :user_id, :token_hash, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reset); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

// FindPasswordReset returns the reset entry for a token hash.
func (r *IdentityRepository) FindPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	const query = `SELECT id, user_id, token_hash, expires_at, used_at, created_at FROM password_resets WHERE token_hash = $1 LIMIT 1`
	var reset models.PasswordReset
	if err := r.db.GetContext(ctx, &reset, query, tokenHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find password reset: %w", err)
	}
	return &reset, nil
}

// MarkPasswordResetUsed consumes a reset token.
func (r *IdentityRepository) MarkPasswordResetUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE password_resets SET used_at = $2 WHERE id = $1 AND used_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return ensureAffected(res)
}

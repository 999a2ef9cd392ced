package models

import "time"

// RefreshToken is one login session. Rotation revokes the old row and
// inserts a new one.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// Usable reports whether the session may still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t != nil && !t.Revoked && now.Before(t.ExpiresAt)
}

// PasswordReset is a single use reset link. Only the SHA-256 of the token
// sent by email is stored.
type PasswordReset struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Usable reports whether the link is unused and unexpired at now.
func (r *PasswordReset) Usable(now time.Time) bool {
	return r != nil && r.UsedAt == nil && now.Before(r.ExpiresAt)
}

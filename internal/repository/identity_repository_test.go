package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

func TestIdentityRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "last_sign_in_at", "created_at"}).
		AddRow("1", "user@example.com", "hash", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, last_sign_in_at, created_at FROM auth_identities WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	identity, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM auth_identities WHERE id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM auth_identities WHERE id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

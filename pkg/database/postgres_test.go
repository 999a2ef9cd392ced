package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "bk", Password: "p@ss word", Name: "bk_portal"}
	assert.Equal(t, "postgres://bk:p%40ss%20word@db:5432/bk_portal?sslmode=disable", DSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")

	cfg.URL = "postgres://override"
	assert.Equal(t, "postgres://override", DSN(cfg))
}

func TestPing(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, Ping(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

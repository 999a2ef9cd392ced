package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

const settingUpsertQuery = `INSERT INTO settings (key, value, updated_by, updated_at)
VALUES (:key, :value, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`

// SettingRepository persists site settings as JSON values keyed by name.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// List returns every stored setting ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// ListByKeys returns settings whose key is in the provided slice.
func (r *SettingRepository) ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT key, value, updated_by, updated_at
FROM settings WHERE key IN (%s) ORDER BY key ASC`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("list settings by key: %w", err)
	}
	return settings, nil
}

// BulkUpsert performs upserts within a transaction.
func (r *SettingRepository) BulkUpsert(ctx context.Context, settings []models.Setting) error {
	if len(settings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	now := time.Now().UTC()
	for i := range settings {
		settings[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, settingUpsertQuery, settings[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert setting %s: %w", settings[i].Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}

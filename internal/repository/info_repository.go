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

const infoColumns = `id, title, category, content, link, image_path, is_published, created_at, updated_at`

// InfoRepository provides persistence for informational posts.
type InfoRepository struct {
	db *sqlx.DB
}

// NewInfoRepository creates the repository.
func NewInfoRepository(db *sqlx.DB) *InfoRepository {
	return &InfoRepository{db: db}
}

// List returns info items newest first with the total match count.
func (r *InfoRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.InfoItem, int, error) {
	where, args := contentWhere(filter)
	page, size := clampPage(filter.Page, filter.PageSize, 20)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM info_items%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, infoColumns, where, size, offset)
	var items []models.InfoItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list info items: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM info_items%s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count info items: %w", err)
	}
	return items, total, nil
}

// FindByID returns a single info item.
func (r *InfoRepository) FindByID(ctx context.Context, id string) (*models.InfoItem, error) {
	query := `SELECT ` + infoColumns + ` FROM info_items WHERE id = $1`
	var item models.InfoItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find info item: %w", err)
	}
	return &item, nil
}

// Create inserts a new info item.
func (r *InfoRepository) Create(ctx context.Context, item *models.InfoItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO info_items (id, title, category, content, link, image_path, is_published, created_at, updated_at)
VALUES (:id, :title, :category, :content, :link, :image_path, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create info item: %w", err)
	}
	return nil
}

// Update overwrites the mutable info item fields.
func (r *InfoRepository) Update(ctx context.Context, item *models.InfoItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE info_items SET title = :title, category = :category, content = :content, link = :link,
image_path = :image_path, is_published = :is_published, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update info item: %w", err)
	}
	return ensureAffected(res)
}

// Delete removes an info item row.
func (r *InfoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM info_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete info item: %w", err)
	}
	return ensureAffected(res)
}

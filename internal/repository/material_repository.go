package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

const materialColumns = `id, materi_ke, title, type, description, external_url, preview_path, file_path, author, is_published, created_at, updated_at`

// MaterialRepository provides persistence for learning materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns one page of materials. It reads one extra row to report whether another page exists.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, bool, error) {
	var conditions []string
	var args []interface{}
	if filter.PublishedOnly {
		conditions = append(conditions, "is_published = TRUE")
	}
	if filter.MateriKe != nil {
		conditions = append(conditions, fmt.Sprintf("materi_ke = $%d", len(args)+1))
		args = append(args, *filter.MateriKe)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d ESCAPE '\\'", len(args)+1))
		args = append(args, "%"+escapeLike(search)+"%")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "created_at DESC"
	if filter.Sort == models.MaterialSortOrder {
		orderBy = "materi_ke ASC, created_at DESC"
	}

	page, size := clampPage(filter.Page, filter.PageSize, 9)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM materials%s ORDER BY %s LIMIT %d OFFSET %d`, materialColumns, where, orderBy, size+1, offset)
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, false, fmt.Errorf("list materials: %w", err)
	}
	hasMore := len(materials) > size
	if hasMore {
		materials = materials[:size]
	}
	return materials, hasMore, nil
}

// Count returns the number of stored materials.
func (r *MaterialRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM materials`); err != nil {
		return 0, fmt.Errorf("count materials: %w", err)
	}
	return total, nil
}

// FindByID returns a single material.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find material: %w", err)
	}
	return &material, nil
}

// Create inserts a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	material.CreatedAt = now
	material.UpdatedAt = now
	const query = `INSERT INTO materials (id, materi_ke, title, type, description, external_url, preview_path, file_path, author, is_published, created_at, updated_at)
VALUES (:id, :materi_ke, :title, :type, :description, :external_url, :preview_path, :file_path, :author, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Update overwrites the mutable material fields. Author is never changed.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE materials SET materi_ke = :materi_ke, title = :title, type = :type, description = :description,
external_url = :external_url, preview_path = :preview_path, file_path = :file_path, is_published = :is_published,
updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, material)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return ensureAffected(res)
}

// Delete removes a material row.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return ensureAffected(res)
}

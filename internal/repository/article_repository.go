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

const articleColumns = `id, title, category, content, cover_path, is_published, created_at, updated_at`

// ArticleRepository provides persistence for counseling articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates the repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// List returns articles newest first with the total match count.
func (r *ArticleRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.Article, int, error) {
	where, args := contentWhere(filter)

	page, size := clampPage(filter.Page, filter.PageSize, 20)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM articles%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, articleColumns, where, size, offset)
	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM articles%s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	return articles, total, nil
}

// FindByID returns a single article.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	var article models.Article
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find article: %w", err)
	}
	return &article, nil
}

// Create inserts a new article.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	const query = `INSERT INTO articles (id, title, category, content, cover_path, is_published, created_at, updated_at)
VALUES (:id, :title, :category, :content, :cover_path, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// Update overwrites the mutable article fields.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now().UTC()
	const query = `UPDATE articles SET title = :title, category = :category, content = :content, cover_path = :cover_path,
is_published = :is_published, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, article)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return ensureAffected(res)
}

// Delete removes an article row.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return ensureAffected(res)
}

func contentWhere(filter models.ContentFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.PublishedOnly {
		conditions = append(conditions, "is_published = TRUE")
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d ESCAPE '\\'", len(args)+1))
		args = append(args, "%"+escapeLike(search)+"%")
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func clampPage(page, size, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = fallback
	}
	return page, size
}

func ensureAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

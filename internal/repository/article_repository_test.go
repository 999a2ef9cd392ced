package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

func TestArticleRepositoryListPublishedByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "category", "content", "cover_path", "is_published", "created_at", "updated_at"}).
		AddRow("a1", "Mengelola Stres", "konseling", "isi", "article_covers/1_a.png", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, category, content, cover_path, is_published, created_at, updated_at FROM articles WHERE is_published = TRUE AND category = $1 ORDER BY created_at DESC LIMIT 3 OFFSET 0")).
		WithArgs("konseling").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE is_published = TRUE AND category = $1")).
		WithArgs("konseling").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	articles, total, err := repo.List(context.Background(), models.ContentFilter{
		Category:      "konseling",
		PublishedOnly: true,
		Page:          1,
		PageSize:      3,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 7, total)
	assert.Equal(t, models.ArticleCategoryKonseling, articles[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInfoRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInfoRepository(db)

	mock.ExpectExec("UPDATE info_items SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.InfoItem{ID: "i1", Title: "x", Category: models.InfoCategoryUmum})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

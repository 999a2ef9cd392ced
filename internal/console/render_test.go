package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

func strPtr(s string) *string { return &s }

func TestRendererDates(t *testing.T) {
	r := NewRenderer(time.UTC)

	assert.Equal(t, NotAvailable, r.Date(time.Time{}))
	assert.Equal(t, NotAvailable, r.DateTime(time.Time{}))

	formatted := r.Date(time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC))
	assert.Contains(t, formatted, "2024")
	assert.Contains(t, formatted, "Jul")
	assert.Greater(t, len(r.DateTime(time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC))), len(formatted))
}

func TestRendererAccountFallsBackToNA(t *testing.T) {
	r := NewRenderer(nil)
	row := r.Account(models.Profile{ID: "p1", Email: "a@b.c", Role: models.RoleTeacher})

	assert.Equal(t, RowData, row.Kind)
	assert.Equal(t, []string{NotAvailable, "a@b.c", "guru", NotAvailable}, row.Cells)
	require.Len(t, row.Actions, 1)
	assert.Equal(t, Action{Name: ActionView, ID: "p1"}, row.Actions[0])

	detail := r.AccountDetail(models.Profile{ID: "p1", Phone: strPtr("0812"), NotifyEmail: true})
	assert.Contains(t, detail, [2]string{"Telepon", "0812"})
	assert.Contains(t, detail, [2]string{"Alamat", NotAvailable})
	assert.Contains(t, detail, [2]string{"Notifikasi Email", "Ya"})
}

func TestRendererDeleteActionsCarryStoredObjects(t *testing.T) {
	r := NewRenderer(nil)

	material := r.Material(models.Material{
		ID: "m1", MateriKe: 3, Title: "Modul", Type: models.MaterialTypeDokumen,
		PreviewPath: strPtr("3_cover.png"), FilePath: strPtr("3_modul.pdf"),
	})
	assert.Equal(t, []string{"3", "Modul", "dokumen", NotAvailable, NotAvailable}, material.Cells)
	assert.Equal(t, []FileRef{
		{Bucket: storage.BucketPreviews, Path: "3_cover.png"},
		{Bucket: storage.BucketMaterials, Path: "3_modul.pdf"},
	}, material.Actions[1].Files)

	article := r.Article(models.Article{ID: "a1", Title: "Karir", Category: models.ArticleCategoryKarir, IsPublished: true})
	assert.Equal(t, "Terbit", article.Cells[2])
	assert.Nil(t, article.Actions[1].Files)

	info := r.Info(models.InfoItem{ID: "i1", ImagePath: strPtr("juara.jpg")})
	assert.Equal(t, "Draf", info.Cells[2])
	assert.Equal(t, []FileRef{{Bucket: storage.BucketInfoImages, Path: "juara.jpg"}}, info.Actions[1].Files)
}

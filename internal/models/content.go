package models

import "time"

// ArticleCategory groups counseling articles on the public site.
type ArticleCategory string

const (
	ArticleCategoryKonseling        ArticleCategory = "konseling"
	ArticleCategoryKarir            ArticleCategory = "karir"
	ArticleCategoryPengembanganDiri ArticleCategory = "pengembangan_diri"
)

// Article is a counseling article with an optional cover image.
type Article struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Category    ArticleCategory `db:"category" json:"category"`
	Content     string          `db:"content" json:"content"`
	CoverPath   *string         `db:"cover_path" json:"cover_path,omitempty"`
	CoverURL    string          `db:"-" json:"cover_url,omitempty"`
	IsPublished bool            `db:"is_published" json:"is_published"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// InfoCategory groups informational posts.
type InfoCategory string

const (
	InfoCategoryPekerjaan InfoCategory = "info_pekerjaan"
	InfoCategoryPrestasi  InfoCategory = "prestasi"
	InfoCategoryUmum      InfoCategory = "umum"
)

// Valid reports whether c is a known info category.
func (c InfoCategory) Valid() bool {
	switch c {
	case InfoCategoryPekerjaan, InfoCategoryPrestasi, InfoCategoryUmum:
		return true
	}
	return false
}

// InfoItem is a job posting, achievement or general announcement.
type InfoItem struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Category    InfoCategory `db:"category" json:"category"`
	Content     string       `db:"content" json:"content"`
	Link        *string      `db:"link" json:"link,omitempty"`
	ImagePath   *string      `db:"image_path" json:"image_path,omitempty"`
	ImageURL    string       `db:"-" json:"image_url,omitempty"`
	IsPublished bool         `db:"is_published" json:"is_published"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// MaterialType describes the payload kind of a learning material.
type MaterialType string

const (
	MaterialTypeDokumen MaterialType = "dokumen"
	MaterialTypeVideo   MaterialType = "video"
	MaterialTypeAudio   MaterialType = "audio"
	MaterialTypeGambar  MaterialType = "gambar"
	MaterialTypeTautan  MaterialType = "tautan"
)

// Material is a downloadable or linked learning resource.
type Material struct {
	ID          string       `db:"id" json:"id"`
	MateriKe    int          `db:"materi_ke" json:"materi_ke"`
	Title       string       `db:"title" json:"title"`
	Type        MaterialType `db:"type" json:"type"`
	Description *string      `db:"description" json:"description,omitempty"`
	ExternalURL *string      `db:"external_url" json:"external_url,omitempty"`
	PreviewPath *string      `db:"preview_path" json:"preview_path,omitempty"`
	PreviewURL  string       `db:"-" json:"preview_url,omitempty"`
	FilePath    *string      `db:"file_path" json:"file_path,omitempty"`
	Author      string       `db:"author" json:"author"`
	IsPublished bool         `db:"is_published" json:"is_published"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ContentFilter narrows article and info listings.
type ContentFilter struct {
	Category      string
	PublishedOnly bool
	Search        string
	Page          int
	PageSize      int
}

// Material sort modes.
const (
	MaterialSortLatest = "latest"
	MaterialSortOrder  = "order"
)

// MaterialFilter narrows material listings.
type MaterialFilter struct {
	MateriKe      *int
	PublishedOnly bool
	Search        string
	Sort          string
	Page          int
	PageSize      int
}

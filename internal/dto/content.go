package dto

import "github.com/noah-isme/bk-portal-api/internal/models"

// ArticleRequest is bound from multipart form fields on create and update.
type ArticleRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Category    string `form:"category" json:"category" validate:"required,max=64"`
	Content     string `form:"content" json:"content" validate:"required"`
	IsPublished bool   `form:"is_published" json:"is_published"`
	RemoveCover bool   `form:"remove_cover" json:"remove_cover"`
}

// InfoItemRequest is bound from multipart form fields on create and update.
type InfoItemRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Category    string `form:"category" json:"category" validate:"required,info_category"`
	Content     string `form:"content" json:"content" validate:"required"`
	Link        string `form:"link" json:"link" validate:"omitempty,url"`
	IsPublished bool   `form:"is_published" json:"is_published"`
	RemoveImage bool   `form:"remove_image" json:"remove_image"`
}

// MaterialRequest is bound from multipart form fields on create and update.
type MaterialRequest struct {
	MateriKe    int    `form:"materi_ke" json:"materi_ke" validate:"required,min=1"`
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Type        string `form:"type" json:"type" validate:"required,oneof=dokumen video audio gambar tautan"`
	Description string `form:"description" json:"description" validate:"omitempty,max=2000"`
	ExternalURL string `form:"external_url" json:"external_url" validate:"omitempty,url"`
	IsPublished bool   `form:"is_published" json:"is_published"`
}

// MaterialPage is the public material listing with a has-more flag.
type MaterialPage struct {
	Items   []models.Material `json:"items"`
	Page    int               `json:"page"`
	HasMore bool              `json:"has_more"`
}

// DownloadURLResponse returns a short-lived link to a private object.
type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// DeleteContentResponse reports a content delete; Warning is set when file cleanup failed.
type DeleteContentResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning,omitempty"`
}

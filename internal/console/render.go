package console

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/id"

	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

// NotAvailable is shown for absent optional fields.
const NotAvailable = "N/A"

// Row action names.
const (
	ActionView   = "view"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Renderer maps records to table rows using Indonesian date formats.
type Renderer struct {
	tr  locales.Translator
	loc *time.Location
}

// NewRenderer builds a renderer that shows times in loc (UTC when nil).
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{tr: id.New(), loc: loc}
}

// Date formats t as a medium id-ID date.
func (r *Renderer) Date(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return r.tr.FmtDateMedium(t.In(r.loc))
}

// DateTime formats t as a medium id-ID date followed by the short time.
func (r *Renderer) DateTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	local := t.In(r.loc)
	return r.tr.FmtDateMedium(local) + " " + r.tr.FmtTimeShort(local)
}

// Account renders a profile row.
func (r *Renderer) Account(p models.Profile) Row {
	return Row{
		Kind:    RowData,
		ID:      p.ID,
		Cells:   []string{orNA(p.Name), p.Email, string(p.Role), r.Date(p.CreatedAt)},
		Actions: []Action{{Name: ActionView, ID: p.ID}},
	}
}

// AccountDetail renders every field shown in the detail modal.
func (r *Renderer) AccountDetail(p models.Profile) [][2]string {
	notify := "Tidak"
	if p.NotifyEmail {
		notify = "Ya"
	}
	return [][2]string{
		{"ID", p.ID},
		{"Nama", orNA(p.Name)},
		{"Email", p.Email},
		{"Peran", string(p.Role)},
		{"Telepon", orNA(p.Phone)},
		{"Alamat", orNA(p.Address)},
		{"Notifikasi Email", notify},
		{"Dibuat", r.DateTime(p.CreatedAt)},
	}
}

// Article renders an article row; delete carries the cover object.
func (r *Renderer) Article(a models.Article) Row {
	return Row{
		Kind:  RowData,
		ID:    a.ID,
		Cells: []string{a.Title, string(a.Category), publishState(a.IsPublished), r.Date(a.CreatedAt)},
		Actions: []Action{
			{Name: ActionEdit, ID: a.ID},
			{Name: ActionDelete, ID: a.ID, Files: fileRefs(storage.BucketArticleCovers, a.CoverPath)},
		},
	}
}

// Info renders an info row; delete carries the image object.
func (r *Renderer) Info(i models.InfoItem) Row {
	return Row{
		Kind:  RowData,
		ID:    i.ID,
		Cells: []string{i.Title, string(i.Category), publishState(i.IsPublished), r.Date(i.CreatedAt)},
		Actions: []Action{
			{Name: ActionEdit, ID: i.ID},
			{Name: ActionDelete, ID: i.ID, Files: fileRefs(storage.BucketInfoImages, i.ImagePath)},
		},
	}
}

// Material renders a material row; delete carries the preview and the payload.
func (r *Renderer) Material(m models.Material) Row {
	files := append(fileRefs(storage.BucketPreviews, m.PreviewPath), fileRefs(storage.BucketMaterials, m.FilePath)...)
	author := m.Author
	if strings.TrimSpace(author) == "" {
		author = NotAvailable
	}
	return Row{
		Kind:  RowData,
		ID:    m.ID,
		Cells: []string{strconv.Itoa(m.MateriKe), m.Title, string(m.Type), author, r.Date(m.CreatedAt)},
		Actions: []Action{
			{Name: ActionEdit, ID: m.ID},
			{Name: ActionDelete, ID: m.ID, Files: files},
		},
	}
}

func orNA(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return NotAvailable
	}
	return *value
}

func publishState(published bool) string {
	if published {
		return "Terbit"
	}
	return "Draf"
}

func fileRefs(bucket string, path *string) []FileRef {
	if path == nil || *path == "" {
		return nil
	}
	return []FileRef{{Bucket: bucket, Path: *path}}
}

package console

import (
	"strings"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

// ViewKind identifies a back-office list view.
type ViewKind int

const (
	ViewAccounts ViewKind = iota + 1
	ViewArticles
	ViewInfo
	ViewMaterials
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ViewSpec describes the columns, sort keys and filter tabs of one view.
type ViewSpec struct {
	Kind        ViewKind
	Name        string
	Columns     []string
	SortKeys    []string
	RoleTabs    []string
	DefaultSort string
	DefaultDir  SortDirection
	PageSize    int
	LoadError   string
	EmptyText   string
}

var registry = map[ViewKind]ViewSpec{
	ViewAccounts: {
		Kind:        ViewAccounts,
		Name:        "accounts",
		Columns:     []string{"Nama", "Email", "Peran", "Dibuat"},
		SortKeys:    []string{models.SortCreatedAt, models.SortName},
		RoleTabs:    []string{models.RoleFilterAll, string(models.RoleStudent), string(models.RoleTeacher), string(models.RoleAdmin)},
		DefaultSort: models.SortCreatedAt,
		DefaultDir:  SortDesc,
		PageSize:    10,
		LoadError:   "Gagal memuat akun.",
		EmptyText:   "Tidak ada akun ditemukan.",
	},
	ViewArticles: {
		Kind:        ViewArticles,
		Name:        "articles",
		Columns:     []string{"Judul", "Kategori", "Status", "Dibuat"},
		SortKeys:    []string{models.SortCreatedAt},
		DefaultSort: models.SortCreatedAt,
		DefaultDir:  SortDesc,
		PageSize:    20,
		LoadError:   "Gagal memuat artikel.",
		EmptyText:   "Belum ada artikel.",
	},
	ViewInfo: {
		Kind:        ViewInfo,
		Name:        "info",
		Columns:     []string{"Judul", "Kategori", "Status", "Dibuat"},
		SortKeys:    []string{models.SortCreatedAt},
		DefaultSort: models.SortCreatedAt,
		DefaultDir:  SortDesc,
		PageSize:    20,
		LoadError:   "Gagal memuat info.",
		EmptyText:   "Belum ada info.",
	},
	ViewMaterials: {
		Kind:        ViewMaterials,
		Name:        "materials",
		Columns:     []string{"Materi Ke", "Judul", "Tipe", "Penulis", "Dibuat"},
		SortKeys:    []string{models.SortCreatedAt},
		DefaultSort: models.SortCreatedAt,
		DefaultDir:  SortDesc,
		PageSize:    9,
		LoadError:   "Gagal memuat materi.",
		EmptyText:   "Belum ada materi.",
	},
}

// Spec returns the registered spec for kind.
func Spec(kind ViewKind) (ViewSpec, bool) {
	spec, ok := registry[kind]
	return spec, ok
}

// ParseViewKind maps a view name such as "accounts" to its kind.
func ParseViewKind(name string) (ViewKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, spec := range registry {
		if spec.Name == name {
			return kind, true
		}
	}
	return 0, false
}

// ParseSort decodes "<column>_<asc|desc>". Unknown columns fall back to the view default.
func (s ViewSpec) ParseSort(raw string) (string, SortDirection) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 {
		return s.DefaultSort, s.DefaultDir
	}
	key, dir := raw[:idx], SortDirection(raw[idx+1:])
	if !s.hasSortKey(key) || (dir != SortAsc && dir != SortDesc) {
		return s.DefaultSort, s.DefaultDir
	}
	return key, dir
}

// HasRoleTab reports whether role is one of the view's filter tabs.
func (s ViewSpec) HasRoleTab(role string) bool {
	for _, tab := range s.RoleTabs {
		if tab == role {
			return true
		}
	}
	return false
}

func (s ViewSpec) hasSortKey(key string) bool {
	for _, k := range s.SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// UserRole represents the roles recognised by the portal.
type UserRole string

const (
	RoleStudent UserRole = "siswa"
	RoleTeacher UserRole = "guru"
	RoleAdmin   UserRole = "admin"
)

// RoleFilterAll disables role filtering in list queries.
const RoleFilterAll = "all"

// Roles lists every assignable role in display order.
var Roles = []UserRole{RoleStudent, RoleTeacher, RoleAdmin}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may enter the back-office.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Profile is the user-visible account record stored in the profiles table.
type Profile struct {
	ID          string    `db:"id" json:"id"`
	Name        *string   `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Role        UserRole  `db:"role" json:"role"`
	Phone       *string   `db:"phone" json:"phone"`
	Address     *string   `db:"address" json:"address"`
	NotifyEmail bool      `db:"notify_email" json:"notify_email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the name or an empty string when unset.
func (p *Profile) DisplayName() string {
	if p == nil || p.Name == nil {
		return ""
	}
	return *p.Name
}

// Sort columns accepted by profile listings.
const (
	SortCreatedAt = "created_at"
	SortName      = "name"
)

// ParseRoleFilter maps a role tab value onto a filter. "all" and "" disable filtering.
func ParseRoleFilter(raw string) (*UserRole, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == RoleFilterAll {
		return nil, nil
	}
	role := UserRole(raw)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", raw)
	}
	return &role, nil
}

// ParseProfileSort decodes "<column>_<asc|desc>" values such as "name_asc".
// Unknown values fall back to created_at desc.
func ParseProfileSort(raw string) (string, string) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 {
		return SortCreatedAt, "desc"
	}
	column, order := raw[:idx], raw[idx+1:]
	if (column != SortCreatedAt && column != SortName) || (order != "asc" && order != "desc") {
		return SortCreatedAt, "desc"
	}
	return column, order
}

// ProfileFilter captures filtering criteria for listing profiles.
type ProfileFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives the page count from total and page size.
func NewPagination(page, pageSize, total int) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		p.TotalPages = (total + pageSize - 1) / pageSize
	}
	return p
}

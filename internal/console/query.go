package console

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

// QueryState is the filter, search, sort and page selection of one list view.
// Page is zero-based. Every setter except WithPage returns to the first page.
type QueryState struct {
	Page     int
	PageSize int
	Role     string
	Search   string
	SortKey  string
	SortDir  SortDirection
}

// NewQueryState returns the initial state for spec.
func NewQueryState(spec ViewSpec) QueryState {
	role := ""
	if len(spec.RoleTabs) > 0 {
		role = models.RoleFilterAll
	}
	return QueryState{
		PageSize: spec.PageSize,
		Role:     role,
		SortKey:  spec.DefaultSort,
		SortDir:  spec.DefaultDir,
	}
}

// WithRole selects a role tab.
func (q QueryState) WithRole(role string) QueryState {
	q.Role = strings.ToLower(strings.TrimSpace(role))
	q.Page = 0
	return q
}

// WithSearch sets the search text.
func (q QueryState) WithSearch(text string) QueryState {
	q.Search = text
	q.Page = 0
	return q
}

// WithSort sets the sort column and direction.
func (q QueryState) WithSort(key string, dir SortDirection) QueryState {
	q.SortKey = key
	q.SortDir = dir
	q.Page = 0
	return q
}

// WithPage moves to page, keeping every other field.
func (q QueryState) WithPage(page int) QueryState {
	if page < 0 {
		page = 0
	}
	q.Page = page
	return q
}

// SortValue encodes the sort as "<column>_<direction>".
func (q QueryState) SortValue() string {
	if q.SortKey == "" {
		return ""
	}
	return q.SortKey + "_" + string(q.SortDir)
}

// Range returns the inclusive record offsets covered by the page.
func (q QueryState) Range() (int, int) {
	from := q.Page * q.PageSize
	return from, from + q.PageSize - 1
}

// BuildQuery encodes state as API query parameters. The API pages are 1-based.
func BuildQuery(state QueryState) url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(state.Page+1))
	if state.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(state.PageSize))
	}
	if state.Role != "" && state.Role != models.RoleFilterAll {
		values.Set("role", state.Role)
	}
	if search := strings.TrimSpace(state.Search); search != "" {
		values.Set("search", search)
	}
	if sort := state.SortValue(); sort != "" {
		values.Set("sort", sort)
	}
	return values
}

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
)

type accountServiceStub struct {
	lastFilter models.ProfileFilter
	lastFormat string
	lastRole   dto.UpdateRoleRequest
	actorID    string
}

func (s *accountServiceStub) PageSize() int { return 10 }

func (s *accountServiceStub) List(_ context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	s.lastFilter = filter
	return []models.Profile{{ID: "p1", Email: "a@example.com", Role: models.RoleStudent}}, models.NewPagination(filter.Page, filter.PageSize, 15), nil
}

func (s *accountServiceStub) Get(_ context.Context, id string) (*models.Profile, error) {
	return &models.Profile{ID: id}, nil
}

func (s *accountServiceStub) UpdateRole(_ context.Context, id string, req dto.UpdateRoleRequest, actorID string, _ models.RequestMeta) (*models.Profile, error) {
	s.lastRole = req
	s.actorID = actorID
	return &models.Profile{ID: id, Role: req.Role}, nil
}

func (s *accountServiceStub) Count(_ context.Context, rawRole string) (*dto.AccountCountResponse, error) {
	return &dto.AccountCountResponse{Role: rawRole, Count: 3}, nil
}

func (s *accountServiceStub) KPIs(_ context.Context) dto.AccountKPIResponse {
	total, students := 25, 15
	return dto.AccountKPIResponse{Total: &total, Students: &students}
}

func (s *accountServiceStub) Export(_ context.Context, filter models.ProfileFilter, format string) (*service.ExportFile, error) {
	s.lastFilter = filter
	s.lastFormat = format
	return &service.ExportFile{Filename: "akun_20240701.csv", ContentType: "text/csv", Data: []byte("Nama\n")}, nil
}

func TestAccountHandlerListParsesQuery(t *testing.T) {
	stub := &accountServiceStub{}
	h := NewAccountHandler(stub)
	c, w := newJSONContext(http.MethodGet, "/accounts?page=2&role=SISWA&search=%20budi%20&sort=name_asc", nil, adminClaims())

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.lastFilter.Role)
	assert.Equal(t, models.RoleStudent, *stub.lastFilter.Role)
	assert.Equal(t, 2, stub.lastFilter.Page)
	assert.Equal(t, 10, stub.lastFilter.PageSize)
	assert.Equal(t, "budi", stub.lastFilter.Search)
	assert.Equal(t, "name", stub.lastFilter.SortBy)
	assert.Equal(t, "asc", stub.lastFilter.SortOrder)

	body := decodeEnvelope(t, w)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestAccountHandlerListRejectsUnknownRole(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{})
	c, w := newJSONContext(http.MethodGet, "/accounts?role=wali", nil, adminClaims())

	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandlerUpdateRole(t *testing.T) {
	stub := &accountServiceStub{}
	h := NewAccountHandler(stub)

	c, w := newJSONContext(http.MethodPatch, "/accounts/p1/role", map[string]string{"role": "guru"}, nil)
	h.UpdateRole(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newJSONContext(http.MethodPatch, "/accounts/p1/role", `{"role":`, adminClaims())
	h.UpdateRole(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newJSONContext(http.MethodPatch, "/accounts/p1/role", map[string]string{"role": "guru"}, adminClaims())
	c.AddParam("id", "p1")
	h.UpdateRole(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleTeacher, stub.lastRole.Role)
	assert.Equal(t, "admin-1", stub.actorID)
}

func TestAccountHandlerExportStreamsFile(t *testing.T) {
	stub := &accountServiceStub{}
	h := NewAccountHandler(stub)
	c, w := newJSONContext(http.MethodGet, "/accounts/export?format=csv&role=admin", nil, adminClaims())

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="akun_20240701.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "csv", stub.lastFormat)
	require.NotNil(t, stub.lastFilter.Role)
	assert.Equal(t, models.RoleAdmin, *stub.lastFilter.Role)
}

func TestAccountHandlerKPIsKeepNulls(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{})
	c, w := newJSONContext(http.MethodGet, "/accounts/kpis", nil, adminClaims())

	h.KPIs(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(25), data["total"])
	assert.Nil(t, data["guru"])
}

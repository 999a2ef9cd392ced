package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// seedRoster builds 15 students and 10 admins with distinct creation times.
func seedRoster() *fakeProfileStore {
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	var profiles []models.Profile
	for i := 0; i < 25; i++ {
		role := models.RoleStudent
		if i >= 15 {
			role = models.RoleAdmin
		}
		profiles = append(profiles, models.Profile{
			ID:        fmt.Sprintf("p%02d", i),
			Name:      strPtr(fmt.Sprintf("Pengguna %02d", i)),
			Email:     fmt.Sprintf("user%02d@example.com", i),
			Role:      role,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return newFakeProfileStore(profiles...)
}

func TestAccountServiceListStudentPages(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)
	role := models.RoleStudent

	page1, pagination, err := svc.List(context.Background(), models.ProfileFilter{Role: &role, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1, 10)
	for _, p := range page1 {
		assert.Equal(t, models.RoleStudent, p.Role)
	}
	assert.Equal(t, 15, pagination.TotalCount)
	assert.Equal(t, 2, pagination.TotalPages)

	page2, _, err := svc.List(context.Background(), models.ProfileFilter{Role: &role, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 5)

	page3, _, err := svc.List(context.Background(), models.ProfileFilter{Role: &role, Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page3)
	assert.NotNil(t, page3)
}

func TestAccountServiceListSearch(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)

	profiles, pagination, err := svc.List(context.Background(), models.ProfileFilter{Search: "USER2"})
	require.NoError(t, err)
	assert.Equal(t, 5, pagination.TotalCount)
	for _, p := range profiles {
		assert.True(t, strings.Contains(strings.ToLower(p.Email), "user2"))
	}
}

func TestAccountServiceListWrapsError(t *testing.T) {
	store := seedRoster()
	store.listErr = errors.New("db down")
	svc := NewAccountService(store, nil, validator.New(), zap.NewNop(), 10)

	_, _, err := svc.List(context.Background(), models.ProfileFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceGetNotFound(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceUpdateRole(t *testing.T) {
	store := seedRoster()
	svc := NewAccountService(store, nil, validator.New(), zap.NewNop(), 10)

	profile, err := svc.UpdateRole(context.Background(), "p00", dto.UpdateRoleRequest{Role: "GURU"}, "p20", models.RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, profile.Role)

	stored, err := store.FindByID(context.Background(), "p00")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, stored.Role)
	assert.Equal(t, "Pengguna 00", stored.DisplayName())
	require.Len(t, store.auditLogs, 1)
	assert.JSONEq(t, `{"role":"siswa"}`, string(store.auditLogs[0].OldValues))
	assert.JSONEq(t, `{"role":"guru"}`, string(store.auditLogs[0].NewValues))
}

func TestAccountServiceUpdateRoleRejectsUnknownRole(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)

	_, err := svc.UpdateRole(context.Background(), "p00", dto.UpdateRoleRequest{Role: "kepala_sekolah"}, "p20", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceKPIsSumToTotal(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)

	kpis := svc.KPIs(context.Background())
	require.NotNil(t, kpis.Total)
	require.NotNil(t, kpis.Students)
	require.NotNil(t, kpis.Teachers)
	require.NotNil(t, kpis.Admins)
	assert.Equal(t, *kpis.Total, *kpis.Students+*kpis.Teachers+*kpis.Admins)
	assert.Equal(t, 25, *kpis.Total)
	assert.Equal(t, 15, *kpis.Students)
	assert.Equal(t, 0, *kpis.Teachers)
}

func TestAccountServiceKPIsIndependentFailures(t *testing.T) {
	store := seedRoster()
	store.countErr["guru"] = errors.New("timeout")
	svc := NewAccountService(store, nil, validator.New(), zap.NewNop(), 10)

	kpis := svc.KPIs(context.Background())
	assert.Nil(t, kpis.Teachers)
	require.NotNil(t, kpis.Admins)
	assert.Equal(t, 10, *kpis.Admins)
}

func TestAccountServiceCount(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)

	res, err := svc.Count(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Count)

	res, err = svc.Count(context.Background(), "all")
	require.NoError(t, err)
	assert.Equal(t, 25, res.Count)

	_, err = svc.Count(context.Background(), "wali")
	require.Error(t, err)
}

func TestAccountServiceExportCSV(t *testing.T) {
	svc := NewAccountService(seedRoster(), nil, validator.New(), zap.NewNop(), 10)
	role := models.RoleAdmin

	file, err := svc.Export(context.Background(), models.ProfileFilter{Role: &role}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, "Nama,Email,Peran,Telepon,Dibuat", lines[0])
	assert.Contains(t, lines[1], "N/A")

	_, err = svc.Export(context.Background(), models.ProfileFilter{}, "xlsx")
	require.Error(t, err)
}

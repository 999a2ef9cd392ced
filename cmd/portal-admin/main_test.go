package main

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePortal struct {
	mu       sync.Mutex
	profiles []models.Profile
	roles    map[string]models.UserRole
	deleted  []string
}

func newFakePortal() *fakePortal {
	p := &fakePortal{roles: make(map[string]models.UserRole)}
	for i := 0; i < 15; i++ {
		p.profiles = append(p.profiles, models.Profile{ID: "s" + strconv.Itoa(i), Email: "siswa" + strconv.Itoa(i) + "@example.com", Role: models.RoleStudent})
	}
	for i := 0; i < 10; i++ {
		p.profiles = append(p.profiles, models.Profile{ID: "a" + strconv.Itoa(i), Email: "admin" + strconv.Itoa(i) + "@example.com", Role: models.RoleAdmin})
	}
	return p
}

func (p *fakePortal) engine() *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/accounts", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		var matched []models.Profile
		for _, profile := range p.profiles {
			if role := c.Query("role"); role != "" && string(profile.Role) != role {
				continue
			}
			matched = append(matched, profile)
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
		start := (page - 1) * size
		end := start + size
		if start > len(matched) {
			start = len(matched)
		}
		if end > len(matched) {
			end = len(matched)
		}
		response.JSON(c, http.StatusOK, matched[start:end], models.NewPagination(page, size, len(matched)))
	})
	r.GET("/api/v1/accounts/count", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		count := 0
		for _, profile := range p.profiles {
			if role := c.Query("role"); role == "" || string(profile.Role) == role {
				count++
			}
		}
		response.JSON(c, http.StatusOK, dto.AccountCountResponse{Role: c.Query("role"), Count: count}, nil)
	})
	r.GET("/api/v1/accounts/:id", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, profile := range p.profiles {
			if profile.ID == c.Param("id") {
				response.JSON(c, http.StatusOK, profile, nil)
				return
			}
		}
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "account not found"))
	})
	r.PATCH("/api/v1/accounts/:id/role", func(c *gin.Context) {
		var req dto.UpdateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid role payload"))
			return
		}
		p.mu.Lock()
		p.roles[c.Param("id")] = req.Role
		p.mu.Unlock()
		response.JSON(c, http.StatusOK, models.Profile{ID: c.Param("id"), Role: req.Role}, nil)
	})
	r.POST("/functions/v1/delete-user", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		if body["userId"] == "a0" {
			c.JSON(http.StatusBadRequest, dto.DeleteUserResponse{Error: "You cannot delete your own account"})
			return
		}
		p.mu.Lock()
		p.deleted = append(p.deleted, body["userId"])
		p.mu.Unlock()
		c.JSON(http.StatusOK, dto.DeleteUserResponse{OK: true, Outcome: models.DeleteOutcomeDeleted})
	})
	return r
}

func runCLI(t *testing.T, portal *fakePortal, stdin string, args ...string) (int, string, string) {
	t.Helper()
	srv := httptest.NewServer(portal.engine())
	defer srv.Close()

	var out, errOut bytes.Buffer
	st := streams{in: strings.NewReader(stdin), out: &out, errOut: &errOut}
	cmd := newRootCmd(st)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--token", "t", "--tz", "UTC"}, args...))
	err := cmd.Execute()
	if err != nil {
		errOut.WriteString(err.Error() + "\n")
	}
	return exitCode(err), out.String(), errOut.String()
}

func TestAccountsListFiltersByRole(t *testing.T) {
	code, out, _ := runCLI(t, newFakePortal(), "", "accounts", "list", "--role", "siswa", "--page", "2")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Nama")
	assert.Contains(t, out, "siswa10@example.com")
	assert.NotContains(t, out, "admin0@example.com")
	assert.Contains(t, out, "Halaman 2 dari 2")
}

func TestAccountsListRejectsUnknownRole(t *testing.T) {
	code, _, errOut := runCLI(t, newFakePortal(), "", "accounts", "list", "--role", "wali")

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unknown role")
}

func TestAccountsShow(t *testing.T) {
	code, out, _ := runCLI(t, newFakePortal(), "", "accounts", "show", "s3")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "siswa3@example.com")
	assert.Contains(t, out, "N/A")

	code, _, errOut := runCLI(t, newFakePortal(), "", "accounts", "show", "missing")
	assert.Equal(t, exitAPI, code)
	assert.Contains(t, errOut, "Gagal memuat detail akun.")
}

func TestAccountsSetRoleAsksForConfirmation(t *testing.T) {
	portal := newFakePortal()

	code, _, errOut := runCLI(t, portal, "n\n", "accounts", "set-role", "s1", "guru")
	assert.Equal(t, exitDeclined, code)
	assert.Contains(t, errOut, `menjadi "guru"?`)
	assert.Empty(t, portal.roles)

	code, _, errOut = runCLI(t, portal, "ya\n", "accounts", "set-role", "s1", "guru")
	require.Equal(t, exitOK, code)
	assert.Equal(t, models.RoleTeacher, portal.roles["s1"])
	assert.Contains(t, errOut, "Peran akun berhasil diperbarui.")
}

func TestAccountsDelete(t *testing.T) {
	portal := newFakePortal()

	code, _, errOut := runCLI(t, portal, "", "--yes", "accounts", "delete", "a0")
	assert.Equal(t, exitAPI, code)
	assert.Contains(t, errOut, "Gagal menghapus: You cannot delete your own account")
	assert.Empty(t, portal.deleted)

	code, _, errOut = runCLI(t, portal, "", "-y", "accounts", "delete", "s2")
	require.Equal(t, exitOK, code)
	assert.Equal(t, []string{"s2"}, portal.deleted)
	assert.Contains(t, errOut, "Akun berhasil dihapus.")
}

func TestKPIs(t *testing.T) {
	code, out, _ := runCLI(t, newFakePortal(), "", "kpis")

	require.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"total", "25"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"siswa", "15"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"guru", "0"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"admin", "10"}, strings.Fields(lines[3]))
}

func TestContentRejectsUnknownKind(t *testing.T) {
	code, _, errOut := runCLI(t, newFakePortal(), "", "content", "list", "accounts")

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unknown content kind")
}

func TestPromptConfirmer(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "ya": true, "\n": false, "no\n": false, "": false}
	for input, want := range cases {
		var out bytes.Buffer
		p := &promptConfirmer{in: bufio.NewReader(strings.NewReader(input)), out: &out}
		assert.Equal(t, want, p.Confirm("Lanjut?"), input)
		assert.Equal(t, "Lanjut? [y/N]: ", out.String())
	}
	assert.True(t, (&promptConfirmer{assumeYes: true}).Confirm("x"))
}

package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/console"
	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestClient(t *testing.T, r *gin.Engine) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, "token-123", time.Second)
	require.NoError(t, err)
	return client
}

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New("localhost:8080", "", 0)
	assert.Error(t, err)
}

func TestListAccountsDecodesEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/api/v1/accounts", func(c *gin.Context) {
		assert.Equal(t, "Bearer token-123", c.GetHeader("Authorization"))
		assert.NotEmpty(t, c.GetHeader("X-Request-ID"))
		assert.Equal(t, "2", c.Query("page"))
		assert.Equal(t, "siswa", c.Query("role"))
		name := "Budi"
		response.JSON(c, http.StatusOK, []models.Profile{{ID: "p1", Name: &name, Email: "budi@example.com", Role: models.RoleStudent}},
			models.NewPagination(2, 10, 15))
	})
	client := newTestClient(t, r)

	items, total, err := client.ListAccounts(context.Background(), url.Values{"page": {"2"}, "role": {"siswa"}})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Budi", items[0].DisplayName())
	assert.Equal(t, 15, total)
}

func TestCallReturnsTypedAPIError(t *testing.T) {
	r := gin.New()
	r.PATCH("/api/v1/accounts/:id/role", func(c *gin.Context) {
		var req dto.UpdateRoleRequest
		require.NoError(t, c.ShouldBindJSON(&req))
		assert.Equal(t, models.RoleAdmin, req.Role)
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
	})
	client := newTestClient(t, r)

	_, err := client.UpdateRole(context.Background(), "p1", models.RoleAdmin)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FORBIDDEN", appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "admin role required", appErr.Message)
}

func TestCallHandlesNonEnvelopeFailure(t *testing.T) {
	r := gin.New()
	r.GET("/api/v1/accounts/:id", func(c *gin.Context) {
		c.String(http.StatusBadGateway, "upstream down")
	})
	client := newTestClient(t, r)

	_, err := client.GetAccount(context.Background(), "p1")

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errCodeUnexpected, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
}

func TestCountAccountsOmitsAllFilter(t *testing.T) {
	r := gin.New()
	r.GET("/api/v1/accounts/count", func(c *gin.Context) {
		role := c.Query("role")
		count := 25
		if role == "admin" {
			count = 10
		}
		response.JSON(c, http.StatusOK, dto.AccountCountResponse{Role: role, Count: count}, nil)
	})
	client := newTestClient(t, r)

	total, err := client.CountAccounts(context.Background(), models.RoleFilterAll)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	admins, err := client.CountAccounts(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 10, admins)
}

func TestDeleteUserOutcomes(t *testing.T) {
	r := gin.New()
	r.POST("/functions/v1/delete-user", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		switch body["userId"] {
		case "self":
			c.JSON(http.StatusBadRequest, dto.DeleteUserResponse{Error: "You cannot delete your own account"})
		case "partial":
			c.JSON(http.StatusOK, dto.DeleteUserResponse{OK: true, Outcome: models.DeleteOutcomePartial, Warning: "profile cleanup failed"})
		default:
			c.JSON(http.StatusOK, dto.DeleteUserResponse{OK: true})
		}
	})
	client := newTestClient(t, r)
	ctx := context.Background()

	res, err := client.DeleteUser(ctx, "p9")
	require.NoError(t, err)
	assert.Equal(t, models.DeleteOutcomeDeleted, res.Outcome)

	res, err = client.DeleteUser(ctx, "partial")
	require.NoError(t, err)
	assert.Equal(t, models.DeleteOutcomePartial, res.Outcome)
	assert.Equal(t, "profile cleanup failed", res.Warning)

	_, err = client.DeleteUser(ctx, "self")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "You cannot delete your own account", appErr.Message)
}

func TestContentEndpoints(t *testing.T) {
	var deletedPath string
	r := gin.New()
	r.GET("/api/v1/admin/materials", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, dto.MaterialPage{Items: []models.Material{{ID: "m1"}}, Page: 1, HasMore: true}, nil)
	})
	r.DELETE("/api/v1/admin/:kind/:id", func(c *gin.Context) {
		deletedPath = c.Request.URL.Path
		response.JSON(c, http.StatusOK, dto.DeleteContentResponse{ID: c.Param("id"), Warning: "Data dihapus, tapi gagal menghapus file dari storage."}, nil)
	})
	client := newTestClient(t, r)
	ctx := context.Background()

	items, hasMore, err := client.ListMaterials(ctx, url.Values{"page": {"1"}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.True(t, hasMore)

	res, err := client.DeleteContent(ctx, console.ViewInfo, "i1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/admin/info/i1", deletedPath)
	assert.NotEmpty(t, res.Warning)

	_, err = client.DeleteContent(ctx, console.ViewAccounts, "p1")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

type tableCapture struct {
	rows  []console.Row
	pager console.Pager
}

func (t *tableCapture) RenderRows(rows []console.Row) { t.rows = rows }
func (t *tableCapture) RenderPager(p console.Pager)   { t.pager = p }

type silentNotifier struct{ messages []string }

func (n *silentNotifier) Notify(_ console.Level, message string) {
	n.messages = append(n.messages, message)
}

func TestConsoleDrivesClient(t *testing.T) {
	r := gin.New()
	r.GET("/api/v1/accounts", func(c *gin.Context) {
		assert.Equal(t, "created_at_desc", c.Query("sort"))
		assert.Equal(t, "10", c.Query("page_size"))
		response.JSON(c, http.StatusOK, []models.Profile{{ID: "p1", Email: "a@example.com", Role: models.RoleAdmin}},
			models.NewPagination(1, 10, 1))
	})
	client := newTestClient(t, r)
	sink := &tableCapture{}
	notifier := &silentNotifier{}
	list := console.NewAccountList(client, console.NewRenderer(nil), sink, notifier, nil)

	list.Load(context.Background())

	require.Len(t, sink.rows, 1)
	assert.Equal(t, "a@example.com", sink.rows[0].Cells[1])
	assert.Equal(t, "Halaman 1 dari 1", sink.pager.Label)
	assert.Empty(t, notifier.messages)
}

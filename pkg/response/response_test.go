package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/middleware/requestid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, headers map[string]string) (*httptest.ResponseRecorder, Envelope) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestJSONWithoutMeta(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		JSON(c, http.StatusOK, []string{"a"}, models.NewPagination(1, 10, 25))
	})

	w, env := perform(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Nil(t, env.Meta)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalPages)
}

func TestMetaCarriesRequestIDAndCacheHit(t *testing.T) {
	r := gin.New()
	r.Use(requestid.Middleware(), TrackMeta())
	r.GET("/", func(c *gin.Context) {
		MarkCacheHit(c, true)
		JSON(c, http.StatusOK, "ok", nil)
	})

	_, env := perform(r, map[string]string{"X-Request-ID": "req-42"})
	require.NotNil(t, env.Meta)
	assert.Equal(t, "req-42", env.Meta.RequestID)
	require.NotNil(t, env.Meta.CacheHit)
	assert.True(t, *env.Meta.CacheHit)
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrForbidden, "Hanya admin"))
	})
	w, env := perform(r, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Hanya admin", env.Error.Message)

	r = gin.New()
	r.GET("/", func(c *gin.Context) { Error(c, errors.New("raw")) })
	w, _ = perform(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

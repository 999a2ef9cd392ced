package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string, skip ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins, skip...))
	r.GET("/api/v1/articles", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	r.Any("/functions/v1/delete-user", func(c *gin.Context) { c.String(http.StatusOK, "fn") })
	return r
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter([]string{"https://bk.example.sch.id/"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	req.Header.Set("Origin", "https://bk.example.sch.id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://bk.example.sch.id", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := newRouter([]string{"https://bk.example.sch.id"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSSkipsFunctionPrefix(t *testing.T) {
	r := newRouter(nil, "/functions/")

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/delete-user", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fn", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSWildcardSubdomain(t *testing.T) {
	cases := []struct {
		origin string
		allow  bool
	}{
		{"https://bk.smkn1.sch.id", true},
		{"https://sch.id", false},
		{"http://bk.smkn1.sch.id", false},
		{"https://evil-sch.id.example.com", false},
	}
	r := newRouter([]string{"https://*.sch.id"})
	for _, tc := range cases {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if tc.allow {
				assert.Equal(t, tc.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
				return
			}
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSAllowAllWithoutOrigin(t *testing.T) {
	r := newRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

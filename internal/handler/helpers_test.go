package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/middleware"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, _ := json.Marshal(v)
		reader = bytes.NewReader(payload)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

// flushed writes a status set without a body, as the engine does after the
// handler chain returns.
func flushed(c *gin.Context, w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.Writer.WriteHeaderNow()
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Email: "admin@sekolah.sch.id", Name: "Admin", Role: models.RoleAdmin}
}

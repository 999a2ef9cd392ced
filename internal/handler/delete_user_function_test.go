package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "admin-token" {
		return nil, appErrors.ErrUnauthorized
	}
	return adminClaims(), nil
}

type userDeleterStub struct {
	called   bool
	callerID string
	target   interface{}
	result   *models.DeleteUserResult
	err      error
	panics   bool
}

func (s *userDeleterStub) Delete(_ context.Context, callerID string, target interface{}, _ models.RequestMeta) (*models.DeleteUserResult, error) {
	s.called = true
	s.callerID = callerID
	s.target = target
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func callDeleteFunction(fn *DeleteUserFunction, method, auth, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Any("/functions/v1/delete-user", fn.Handle)
	req := httptest.NewRequest(method, "/functions/v1/delete-user", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeleteUserFunctionPreflight(t *testing.T) {
	stub := &userDeleterStub{}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodOptions, "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.False(t, stub.called)
}

func TestDeleteUserFunctionRejectsMethodAndAuth(t *testing.T) {
	stub := &userDeleterStub{}
	fn := NewDeleteUserFunction(tokenStub{}, stub, nil)

	w := callDeleteFunction(fn, http.MethodGet, "Bearer admin-token", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Method not allowed"}`, w.Body.String())

	w = callDeleteFunction(fn, http.MethodPost, "", `{"userId":"u-2"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Unauthorized"}`, w.Body.String())

	w = callDeleteFunction(fn, http.MethodPost, "Bearer expired", `{"userId":"u-2"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, stub.called)
}

func TestDeleteUserFunctionMapsServiceErrors(t *testing.T) {
	stub := &userDeleterStub{err: appErrors.New(appErrors.ErrForbidden.Code, http.StatusForbidden, service.MsgDeleteForbidden)}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":"u-2"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Forbidden"}`, w.Body.String())
	assert.Equal(t, "admin-1", stub.callerID)
	assert.Equal(t, "u-2", stub.target)
}

func TestDeleteUserFunctionPassesNonStringTarget(t *testing.T) {
	stub := &userDeleterStub{err: appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, service.MsgDeleteMissingID)}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":42}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Missing userId"}`, w.Body.String())
	assert.Equal(t, float64(42), stub.target)
}

func TestDeleteUserFunctionOutcomes(t *testing.T) {
	stub := &userDeleterStub{result: &models.DeleteUserResult{UserID: "u-2", Outcome: models.DeleteOutcomeDeleted}}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":"u-2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"outcome":"deleted"}`, w.Body.String())

	stub.result = &models.DeleteUserResult{UserID: "u-2", Outcome: models.DeleteOutcomePartial, Warning: service.MsgProfileCleanup}
	w = callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":"u-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "partial", body["outcome"])
	assert.Equal(t, service.MsgProfileCleanup, body["warning"])
}

func TestDeleteUserFunctionRecoversPanics(t *testing.T) {
	stub := &userDeleterStub{panics: true}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":"u-2"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["ok"])
}

func TestDeleteUserFunctionUnexpectedError(t *testing.T) {
	stub := &userDeleterStub{err: errors.New("db gone")}
	w := callDeleteFunction(NewDeleteUserFunction(tokenStub{}, stub, nil), http.MethodPost, "Bearer admin-token", `{"userId":"u-2"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

type settingServiceStub struct {
	keys    []string
	upsert  dto.BulkUpsertSettingsRequest
	actorID string
}

func (s *settingServiceStub) List(context.Context) ([]dto.SettingItem, error) {
	return []dto.SettingItem{}, nil
}

func (s *settingServiceStub) ListPublic(_ context.Context, keys []string) ([]dto.SettingItem, error) {
	s.keys = keys
	return []dto.SettingItem{{Key: "hero", Value: json.RawMessage(`{"title":"Hai"}`)}}, nil
}

func (s *settingServiceStub) BulkUpsert(_ context.Context, req dto.BulkUpsertSettingsRequest, actorID string, _ models.RequestMeta) ([]dto.SettingItem, error) {
	s.upsert = req
	s.actorID = actorID
	return req.Items, nil
}

type consultationStub struct{}

func (consultationStub) Links(context.Context) dto.ConsultationLinks {
	return dto.ConsultationLinks{WhatsAppURL: "https://wa.me/628123", Phone: "628123"}
}

func TestSettingHandlerListPublicSplitsKeys(t *testing.T) {
	stub := &settingServiceStub{}
	h := NewSettingHandler(stub, consultationStub{})
	c, w := newJSONContext(http.MethodGet, "/settings?keys=hero,consult_email", nil, nil)

	h.ListPublic(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"hero", "consult_email"}, stub.keys)
}

func TestSettingHandlerBulkUpsert(t *testing.T) {
	stub := &settingServiceStub{}
	h := NewSettingHandler(stub, consultationStub{})

	c, w := newJSONContext(http.MethodPut, "/admin/settings", `invalid`, adminClaims())
	h.BulkUpsert(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newJSONContext(http.MethodPut, "/admin/settings", `{"items":[{"key":"hero","value":{"title":"Halo"}}]}`, adminClaims())
	h.BulkUpsert(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, stub.upsert.Items, 1)
	assert.JSONEq(t, `{"title":"Halo"}`, string(stub.upsert.Items[0].Value))
	assert.Equal(t, "admin-1", stub.actorID)
}

func TestSettingHandlerConsultation(t *testing.T) {
	h := NewSettingHandler(&settingServiceStub{}, consultationStub{})
	c, w := newJSONContext(http.MethodGet, "/consultation", nil, nil)

	h.Consultation(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "https://wa.me/628123", data["whatsapp_url"])
}

type dashboardServiceStub struct {
	hit bool
}

func (s *dashboardServiceStub) Admin(context.Context) *dto.AdminDashboardResponse {
	students := 12
	return &dto.AdminDashboardResponse{Students: &students}
}

func (s *dashboardServiceStub) Home(context.Context) (*dto.HomeResponse, bool, error) {
	return &dto.HomeResponse{Hero: models.HeroSetting{Title: "Portal"}}, s.hit, nil
}

func TestDashboardHandlerHomeReportsCacheHit(t *testing.T) {
	h := NewDashboardHandler(&dashboardServiceStub{hit: true})
	c, w := newJSONContext(http.MethodGet, "/home", nil, nil)
	response.TrackMeta()(c)

	h.Home(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
}

func TestDashboardHandlerAdminNullCounters(t *testing.T) {
	h := NewDashboardHandler(&dashboardServiceStub{})
	c, w := newJSONContext(http.MethodGet, "/dashboard", nil, adminClaims())

	h.Admin(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(12), data["students"])
	assert.Nil(t, data["materials"])
}

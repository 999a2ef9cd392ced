package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

type fakeMaterialCounter struct {
	count int
	err   error
}

func (f fakeMaterialCounter) Count(context.Context) (int, error) {
	return f.count, f.err
}

type fakeLatest struct {
	articles []models.Article
	calls    int
}

func (f *fakeLatest) Latest(_ context.Context, limit int) ([]models.Article, error) {
	f.calls++
	if len(f.articles) > limit {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

type fakeLatestInfo struct {
	items []models.InfoItem
}

func (f fakeLatestInfo) Latest(_ context.Context, limit int) ([]models.InfoItem, error) {
	return f.items, nil
}

func TestDashboardServiceAdminCounters(t *testing.T) {
	profiles := seedRoster()
	for _, id := range []string{"p00", "p01", "p16"} {
		profiles.profiles[id].NotifyEmail = true
	}
	now := time.Date(2024, 8, 17, 9, 0, 0, 0, time.UTC)
	svc := NewDashboardService(DashboardServiceParams{
		Profiles:  profiles,
		Materials: fakeMaterialCounter{count: 12},
		Metrics:   NewMetricsService(),
		Logger:    zap.NewNop(),
	})
	svc.now = func() time.Time { return now }

	resp := svc.Admin(context.Background())
	require.NotNil(t, resp.Students)
	require.NotNil(t, resp.Materials)
	require.NotNil(t, resp.Subscribers)
	require.NotNil(t, resp.Accounts)
	assert.Equal(t, 15, *resp.Students)
	assert.Equal(t, 12, *resp.Materials)
	assert.Equal(t, 3, *resp.Subscribers)
	assert.Equal(t, 25, *resp.Accounts)
	assert.Equal(t, now, resp.GeneratedAt)
}

func TestDashboardServiceAdminCounterFailureIsIsolated(t *testing.T) {
	profiles := seedRoster()
	profiles.countErr["notify"] = errors.New("timeout")
	svc := NewDashboardService(DashboardServiceParams{
		Profiles:  profiles,
		Materials: fakeMaterialCounter{err: errors.New("relation missing")},
	})

	resp := svc.Admin(context.Background())
	assert.Nil(t, resp.Subscribers)
	assert.Nil(t, resp.Materials)
	require.NotNil(t, resp.Students)
	assert.Equal(t, 15, *resp.Students)
}

func TestDashboardServiceHomeUsesDefaultsAndCache(t *testing.T) {
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	articles := &fakeLatest{articles: []models.Article{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}, {ID: "a4"}}}
	svc := NewDashboardService(DashboardServiceParams{
		Articles: articles,
		Info:     fakeLatestInfo{items: []models.InfoItem{{ID: "i1"}}},
		Settings: settingReaderStub{values: map[string]json.RawMessage{"hero": json.RawMessage(`{"title":"Selamat Datang"}`)}},
		Cache:    cacheSvc,
	})

	home, hit, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Selamat Datang", home.Hero.Title)
	assert.Equal(t, defaultHeroSubtitle, home.Hero.Subtitle)
	assert.Len(t, home.Articles, 3)

	cached, hit, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, home.Hero, cached.Hero)
	assert.Equal(t, 1, articles.calls)

	require.NoError(t, cacheSvc.Invalidate(context.Background(), ScopeHome))
	_, hit, err = svc.Home(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}

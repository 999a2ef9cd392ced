package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

type profileCounter interface {
	Count(ctx context.Context, role *models.UserRole) (int, error)
	CountNotifySubscribers(ctx context.Context) (int, error)
}

type materialCounter interface {
	Count(ctx context.Context) (int, error)
}

type latestArticles interface {
	Latest(ctx context.Context, limit int) ([]models.Article, error)
}

type latestInfo interface {
	Latest(ctx context.Context, limit int) ([]models.InfoItem, error)
}

const (
	defaultHeroTitle    = "Portal Konseling & Materi Siswa"
	defaultHeroSubtitle = "Temukan sumber daya, panduan karir, dan dukungan konseling di satu tempat."
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	HomeCacheTTL time.Duration
	HomeLatest   int
}

// DashboardService composes the back-office counters and the public landing payload.
type DashboardService struct {
	profiles  profileCounter
	materials materialCounter
	articles  latestArticles
	info      latestInfo
	settings  settingReader
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Profiles  profileCounter
	Materials materialCounter
	Articles  latestArticles
	Info      latestInfo
	Settings  settingReader
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.HomeCacheTTL <= 0 {
		cfg.HomeCacheTTL = time.Minute
	}
	if cfg.HomeLatest <= 0 {
		cfg.HomeLatest = 3
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		profiles:  params.Profiles,
		materials: params.Materials,
		articles:  params.Articles,
		info:      params.Info,
		settings:  params.Settings,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Admin loads every counter concurrently. A failing counter is left nil and
// never fails the whole response.
func (s *DashboardService) Admin(ctx context.Context) *dto.AdminDashboardResponse {
	resp := &dto.AdminDashboardResponse{GeneratedAt: s.now().UTC()}
	counters := []struct {
		name string
		slot **int
		load func(context.Context) (int, error)
	}{
		{"students", &resp.Students, func(ctx context.Context) (int, error) {
			return s.profiles.Count(ctx, rolePtr(models.RoleStudent))
		}},
		{"materials", &resp.Materials, s.materials.Count},
		{"subscribers", &resp.Subscribers, s.profiles.CountNotifySubscribers},
		{"accounts", &resp.Accounts, func(ctx context.Context) (int, error) {
			return s.profiles.Count(ctx, nil)
		}},
	}

	var wg sync.WaitGroup
	for _, counter := range counters {
		counter := counter
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			value, err := counter.load(ctx)
			s.metrics.ObserveDBQuery("dashboard_"+counter.name, time.Since(start))
			if err != nil {
				s.metrics.RecordCounterFailure(counter.name)
				s.logger.Warn("dashboard counter failed", zap.String("metric", counter.name), zap.Error(err))
				return
			}
			*counter.slot = &value
		}()
	}
	wg.Wait()
	return resp
}

// Home returns the landing hero and latest content, reporting whether it came from cache.
func (s *DashboardService) Home(ctx context.Context) (*dto.HomeResponse, bool, error) {
	resp, hit, err := readThrough(ctx, s.cache, ScopeHome.Key(), s.cfg.HomeCacheTTL, func() (dto.HomeResponse, error) {
		articles, err := s.articles.Latest(ctx, s.cfg.HomeLatest)
		if err != nil {
			return dto.HomeResponse{}, err
		}
		info, err := s.info.Latest(ctx, s.cfg.HomeLatest)
		if err != nil {
			return dto.HomeResponse{}, err
		}
		return dto.HomeResponse{Hero: s.hero(ctx), Articles: articles, Info: info}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

func (s *DashboardService) hero(ctx context.Context) models.HeroSetting {
	hero := models.HeroSetting{Title: defaultHeroTitle, Subtitle: defaultHeroSubtitle}
	values, err := s.settings.Values(ctx, models.SettingHero)
	if err != nil {
		s.logger.Warn("hero settings unavailable, using defaults", zap.Error(err))
		return hero
	}
	raw, ok := values[models.SettingHero]
	if !ok {
		return hero
	}
	var stored models.HeroSetting
	if err := json.Unmarshal(raw, &stored); err != nil {
		return hero
	}
	if stored.Title != "" {
		hero.Title = stored.Title
	}
	if stored.Subtitle != "" {
		hero.Subtitle = stored.Subtitle
	}
	return hero
}

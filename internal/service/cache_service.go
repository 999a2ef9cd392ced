package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheScope groups public read models that are invalidated together.
type CacheScope string

const (
	ScopeArticles CacheScope = "articles"
	ScopeInfo     CacheScope = "info"
	ScopeSettings CacheScope = "settings"
	ScopeHome     CacheScope = "home"
)

const cacheNamespace = "portal:"

// Key builds a key inside the scope from the given parts.
func (s CacheScope) Key(parts ...interface{}) string {
	if len(parts) == 0 {
		return cacheNamespace + string(s)
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = fmt.Sprint(p)
	}
	return cacheNamespace + string(s) + ":" + strings.Join(out, ":")
}

func (s CacheScope) pattern() string {
	return cacheNamespace + string(s) + "*"
}

// CacheService fronts the Redis content cache for public pages and reports
// hit ratios to MetricsService. A nil or disabled CacheService is a no-op.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reads key into dest and reports a hit. Misses are not errors.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err == nil || errors.Is(err, appErrors.ErrCacheMiss) {
		return hit, nil
	}
	s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every key in the given scopes. The landing page embeds
// articles, info and settings, so it is always dropped too.
func (s *CacheService) Invalidate(ctx context.Context, scopes ...CacheScope) error {
	if !s.Enabled() {
		return nil
	}
	seen := map[CacheScope]bool{}
	var errs []error
	for _, scope := range append(scopes, ScopeHome) {
		if seen[scope] {
			continue
		}
		seen[scope] = true
		if err := s.repo.DeleteByPattern(ctx, scope.pattern()); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("scope", string(scope)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// readThrough serves key from cache or calls load and stores the result.
// Cache failures never fail the request.
func readThrough[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, load func() (T, error)) (T, bool, error) {
	var cached T
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}
	fresh, err := load()
	if err != nil {
		return fresh, false, err
	}
	_ = cache.Set(ctx, key, fresh, ttl)
	return fresh, false, nil
}

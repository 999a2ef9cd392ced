package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// unlinkBatch bounds how many keys one UNLINK call removes during
// invalidation.
const unlinkBatch = 100

// CacheRepository keeps JSON encoded public read models in Redis.
type CacheRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client redis.UniversalClient, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes key into dest. Absent keys return ErrCacheMiss. An entry that
// no longer decodes is dropped and reported as a miss so the caller reloads.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Unlink(ctx, key).Err()
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value as JSON with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern unlinks every key matching pattern, scanning in batches so
// invalidation never blocks Redis with KEYS.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, unlinkBatch).Iterator()
	batch := make([]string, 0, unlinkBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink %s: %w", pattern, err)
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return flush()
}

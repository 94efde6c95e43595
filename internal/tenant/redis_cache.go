package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
)

const redisKeyPrefix = "tenant:org:"

var _ Cache = (*RedisCache)(nil)

// RedisCache shares cached organizations across API instances. Redis failures
// degrade to cache misses.
type RedisCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisCache wraps a go-redis client.
func NewRedisCache(client redis.UniversalClient, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*domain.Organization, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tenant cache read failed", zap.String("organization_id", key), zap.Error(err))
		}
		return nil, false
	}
	var org domain.Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		c.logger.Warn("tenant cache entry corrupt", zap.String("organization_id", key), zap.Error(err))
		return nil, false
	}
	return &org, true
}

func (c *RedisCache) Set(ctx context.Context, key string, org *domain.Organization, ttl time.Duration) {
	raw, err := json.Marshal(org)
	if err != nil {
		c.logger.Warn("tenant cache encode failed", zap.String("organization_id", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.logger.Warn("tenant cache write failed", zap.String("organization_id", key), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		c.logger.Warn("tenant cache delete failed", zap.String("organization_id", key), zap.Error(err))
	}
}

// Close is a no-op; the client belongs to the caller.
func (c *RedisCache) Close() error { return nil }

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache stores directory records for a bounded time.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*Company, bool, error)
	Set(ctx context.Context, company Company, ttl time.Duration) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// NoopCache never stores anything. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uuid.UUID) (*Company, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, Company, time.Duration) error { return nil }

func (NoopCache) Invalidate(context.Context, uuid.UUID) error { return nil }

const redisKeyPrefix = "directory:company:"

// RedisCache keeps JSON-encoded companies in Redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, id uuid.UUID) (*Company, bool, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var company Company
	if err := json.Unmarshal([]byte(val), &company); err != nil {
		return nil, false, err
	}
	return &company, true, nil
}

func (c *RedisCache) Set(ctx context.Context, company Company, ttl time.Duration) error {
	payload, err := json.Marshal(company)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+company.ID.String(), payload, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, redisKeyPrefix+id.String()).Err()
}

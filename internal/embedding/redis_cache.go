package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares vectors between API instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache stores entries under "<prefix>:<key>" with the given TTL
// (no expiry when ttl <= 0).
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "embedding"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Backend() string { return "redis" }

func (c *RedisCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

func (c *RedisCache) Get(ctx context.Context, key string) (pgvector.Vector, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pgvector.Vector{}, false, nil
	}
	if err != nil {
		return pgvector.Vector{}, false, fmt.Errorf("failed to get embedding from Redis: %w", err)
	}

	var values []float32
	if err := json.Unmarshal(data, &values); err != nil {
		return pgvector.Vector{}, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return pgvector.NewVector(values), true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec pgvector.Vector) error {
	data, err := json.Marshal(vec.Slice())
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save embedding to Redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete embedding from Redis: %w", err)
	}
	return nil
}

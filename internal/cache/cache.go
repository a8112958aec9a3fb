// Package cache provides a small redis-backed JSON cache for read-path
// responses. Redis is optional: with a nil client every lookup is a miss and
// every write a no-op, so the read path falls back to direct store queries.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roomboard/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a redis client from config settings.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	return redis.NewClient(options)
}

// ViewCache caches rendered view payloads under string keys with a TTL.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

// Get unmarshals a cached value into out. Returns false on a miss or any
// redis/decoding problem; cache failures never surface to callers.
func (c *ViewCache) Get(ctx context.Context, key string, out any) bool {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.client.Get(ctx, fmt.Sprintf("view:%s", key)).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

// Set stores a value under the key, best-effort.
func (c *ViewCache) Set(ctx context.Context, key string, val any) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, fmt.Sprintf("view:%s", key), data, c.ttl).Err()
}

package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over Redis used for immutable reference data
// (courses, categories, semesters). All operations are best-effort: a Redis
// failure means a miss, never a request failure. A nil *Cache is a no-op.
type Cache struct {
	client *redis.Client
}

// NewCache wraps a Redis client for response caching.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetBytes returns the cached payload for key, if present.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// SetJSON marshals value and stores it under key with a TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, b, ttl).Err()
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client for share-payload caching. Shared offer lists
// are immutable once created, so cached copies can never go stale; the TTL
// only bounds memory use.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr and verifies the connection.
func New(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// GetShare returns the cached payload for a share identifier and whether it
// was a hit.
func (c *Cache) GetShare(ctx context.Context, id string) (string, bool, error) {
	val, err := c.client.Get(ctx, shareKey(id)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get share %s from cache: %w", id, err)
	}
	return val, true, nil
}

// SetShare stores a share payload under its identifier.
func (c *Cache) SetShare(ctx context.Context, id, payload string) error {
	if err := c.client.Set(ctx, shareKey(id), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache share %s: %w", id, err)
	}
	return nil
}

// Health reports cache connectivity for the health endpoint.
func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}
	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func shareKey(id string) string {
	return "share:" + id
}

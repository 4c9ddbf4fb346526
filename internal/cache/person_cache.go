// Package cache provides an optional Redis-backed cache for person natural
// key lookups. Person attributes are first-write-wins and never change, so a
// cached name->id mapping can never go stale within its TTL.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "person:id:"

// PersonCache maps canonical person names to surrogate ids.
type PersonCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *PersonCache {
	return &PersonCache{client: client, ttl: ttl}
}

// NewFromURL connects to Redis and verifies the connection.
func NewFromURL(ctx context.Context, url string, ttl time.Duration) (*PersonCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return New(client, ttl), nil
}

// Get returns the cached person id for name. A nil receiver or any Redis
// error reads as a miss; the caller falls through to the repository.
func (c *PersonCache) Get(ctx context.Context, name string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, keyPrefix+name).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Put records a resolved person id. Errors are returned for logging but the
// cache is advisory: callers must not fail a load over them.
func (c *PersonCache) Put(ctx context.Context, name string, id int64) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+name, strconv.FormatInt(id, 10), c.ttl).Err()
}

// Close releases the underlying Redis connection.
func (c *PersonCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

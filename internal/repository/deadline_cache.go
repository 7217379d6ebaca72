package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-timer/internal/config"
)

// deadlineRetention keeps a cached deadline around after it passes, so
// late page loads still see the server value instead of hitting Postgres.
const deadlineRetention = 24 * time.Hour

// DeadlineCache stores server deadlines in Redis as epoch milliseconds.
type DeadlineCache struct {
	rdb *redis.Client
}

// NewDeadlineCache creates a new DeadlineCache.
func NewDeadlineCache(rdb *redis.Client) *DeadlineCache {
	return &DeadlineCache{rdb: rdb}
}

// Get returns the cached deadline. ok is false on a cache miss.
func (c *DeadlineCache) Get(ctx context.Context, testID uuid.UUID) (time.Time, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.TestEndTimeKey(testID.String())).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Corrupt entry; treat as a miss so the caller self-heals it.
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// Set caches a deadline until deadlineRetention after it passes.
func (c *DeadlineCache) Set(ctx context.Context, testID uuid.UUID, deadline time.Time) error {
	ttl := time.Until(deadline) + deadlineRetention
	if ttl < time.Minute {
		ttl = time.Minute
	}
	key := config.CacheKey.TestEndTimeKey(testID.String())
	return c.rdb.Set(ctx, key, deadline.UnixMilli(), ttl).Err()
}

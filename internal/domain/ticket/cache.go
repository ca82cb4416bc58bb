package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AccessCache caches the result of the access-check predicate so hot
// event pages do not hammer Postgres. Cache failures are never surfaced:
// the check falls through to the database.
type AccessCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAccessCache creates an access cache. A nil client disables caching.
func NewAccessCache(client *redis.Client, ttl time.Duration) *AccessCache {
	return &AccessCache{client: client, ttl: ttl}
}

func accessKey(eventID, userID uuid.UUID) string {
	return fmt.Sprintf("access:%s:%s", eventID, userID)
}

// Get reports the cached access value and whether a value was present.
func (c *AccessCache) Get(ctx context.Context, eventID, userID uuid.UUID) (bool, bool) {
	if c == nil || c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, accessKey(eventID, userID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("access cache read failed")
		}
		return false, false
	}
	return val == "1", true
}

func (c *AccessCache) Set(ctx context.Context, eventID, userID uuid.UUID, allowed bool) {
	if c == nil || c.client == nil {
		return
	}
	val := "0"
	if allowed {
		val = "1"
	}
	if err := c.client.Set(ctx, accessKey(eventID, userID), val, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("access cache write failed")
	}
}

// Invalidate drops the cached value after a ticket changes state.
func (c *AccessCache) Invalidate(ctx context.Context, eventID, userID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, accessKey(eventID, userID)).Err(); err != nil {
		log.Warn().Err(err).Msg("access cache invalidation failed")
	}
}

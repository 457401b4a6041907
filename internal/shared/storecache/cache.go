package storecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Well-known cache keys shared by every module that reads through the cache.
const (
	UsersKey   = "cache:users:all"
	RecordsKey = "cache:records:all"
)

const (
	defaultTTL     = 5 * time.Second
	readAttempts   = 3
	retryPause     = 1 * time.Second
	staleKeyPrefix = "stale:"
)

// Cache is the consistency layer between the engine and the row store.
// Reads are served from a short-TTL redis entry; a miss loads from storage
// with bounded retries; when storage stays down the last good snapshot is
// served instead of an error. Mutating callers invalidate keys right after
// their write commits, so the next read is a fresh remote read.
type Cache struct {
	rdb    *redis.Client
	sf     singleflight.Group
	ttl    time.Duration
	pause  time.Duration
	logger *zap.Logger
}

func New(rdb *redis.Client, logger ...*zap.Logger) *Cache {
	l := zap.L().Named("storecache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storecache")
	}
	return &Cache{rdb: rdb, ttl: defaultTTL, pause: retryPause, logger: l}
}

// GetJSON fills dest for key. load runs on a cache miss, deduplicated across
// concurrent callers. On total load failure dest receives the stale snapshot
// when one exists; on a first-ever read it is left as the empty result and
// no error is returned (read failures never surface to domain logic).
func (c *Cache) GetJSON(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error {
	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
			if json.Unmarshal([]byte(cached), dest) == nil {
				return nil
			}
		}
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return c.loadWithRetry(ctx, key, load)
	})
	if err != nil {
		return err
	}

	payload := v.([]byte)
	if len(payload) == 0 {
		// First-ever read with storage down: empty result.
		return nil
	}
	return json.Unmarshal(payload, dest)
}

func (c *Cache) loadWithRetry(ctx context.Context, key string, load func(ctx context.Context) (any, error)) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= readAttempts; attempt++ {
		val, err := load(ctx)
		if err == nil {
			payload, mErr := json.Marshal(val)
			if mErr != nil {
				return nil, mErr
			}
			if c.rdb != nil {
				c.rdb.Set(ctx, key, payload, c.ttl)
				// The stale snapshot never expires; it is the fallback of
				// last resort.
				c.rdb.Set(ctx, staleKeyPrefix+key, payload, 0)
			}
			return payload, nil
		}

		lastErr = err
		c.logger.Warn("storage read failed",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < readAttempts {
			time.Sleep(c.pause)
		}
	}

	if c.rdb != nil {
		if stale, err := c.rdb.Get(ctx, staleKeyPrefix+key).Result(); err == nil {
			c.logger.Warn("serving stale snapshot",
				zap.String("key", key),
				zap.Error(lastErr),
			)
			return []byte(stale), nil
		}
	}

	c.logger.Warn("no snapshot available, returning empty result",
		zap.String("key", key),
		zap.Error(lastErr),
	)
	return nil, nil
}

// Invalidate drops the fresh entries for the given keys. Stale snapshots are
// kept; they are only ever replaced by a newer successful load.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

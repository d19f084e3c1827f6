package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const cacheVersionKey = "feed:combined:ver"

// Cache holds combined-feed pages in redis for a short TTL. Keys carry a
// version counter bumped on every post event, so a cached page never outlives
// a write. Cache failures degrade to recomputation, never to a request error.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) key(ctx context.Context, viewerID uint, limit, offset int) string {
	ver, err := c.rdb.Get(ctx, cacheVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return ""
	}
	return fmt.Sprintf("feed:combined:v%d:%d:%d:%d", ver, viewerID, limit, offset)
}

func (c *Cache) GetPage(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, bool) {
	key := c.key(ctx, viewerID, limit, offset)
	if key == "" {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Debug("feed cache read failed")
		}
		return nil, false
	}
	var page []FeedEntry
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false
	}
	return page, true
}

func (c *Cache) SetPage(ctx context.Context, viewerID uint, limit, offset int, page []FeedEntry) {
	key := c.key(ctx, viewerID, limit, offset)
	if key == "" {
		return
	}
	b, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.WithError(err).Debug("feed cache write failed")
	}
}

// Invalidate bumps the version counter, orphaning every cached page. Old
// pages expire via their TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, cacheVersionKey).Err()
}

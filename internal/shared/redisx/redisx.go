package redisx

import (
	"github.com/redis/go-redis/v9"

	"github.com/70ki8suda/my-new-gear/configs"
)

// Open returns a client for the configured redis, or nil when no redis host is
// set. Redis is optional for this service: without it the combined feed is
// simply computed on every request.
func Open(cfg *configs.Config) *redis.Client {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

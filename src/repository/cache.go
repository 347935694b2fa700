package repository

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CacheRepository stores serialized calculation results keyed by the
// request hash.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// RedisCache backs the cache with Redis. Used when REDIS_ADDR is set.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// LocalCache is the in-process fallback when no Redis address is
// configured.
type LocalCache struct {
	cache *gocache.Cache
}

func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, bool) {
	if val, found := c.cache.Get(key); found {
		if s, ok := val.(string); ok {
			return s, true
		}
	}
	return "", false
}

func (c *LocalCache) Set(_ context.Context, key string, value string) error {
	c.cache.SetDefault(key, value)
	return nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultKeyPrefix namespaces all cache keys in Redis to avoid collisions.
	defaultKeyPrefix = "csvreader:enc:"

	redisOpTimeout = 2 * time.Second
)

func init() {
	Register("redis", newRedisCache)
}

// redisCache shares detected labels between processes reading the same files.
//
// Every entry is a plain string key ({prefix}{fingerprint}) written with SET EX,
// so expiry is handled by Redis. Size is not enforced client-side; the server's
// maxmemory policy bounds the key space and OnEvict is never called.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	cfg    ProviderConfig
}

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Verify connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisCache{
		client: client,
		ttl:    cfg.TTL,
		prefix: prefix,
		cfg:    cfg,
	}, nil
}

func (r *redisCache) logError(msg string, err error) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Error().Err(err).Msg(msg)
	}
}

func (r *redisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	label, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		// redis.Nil is a plain miss.
		if !errors.Is(err, redis.Nil) {
			r.logError("redis cache Get failed", err)
		}
		return "", false
	}
	return label, true
}

func (r *redisCache) Set(key string, label string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, label, r.ttl).Err(); err != nil {
		r.logError("redis cache Set failed", err)
	}
}

func (r *redisCache) Contains(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		r.logError("redis cache Contains failed", err)
		return false
	}
	return n > 0
}

// Len counts the keys under the cache prefix with SCAN.
func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	count := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		r.logError("redis cache Len failed", err)
		return 0
	}
	return count
}

func (r *redisCache) Close() error {
	return r.client.Close()
}

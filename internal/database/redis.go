package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zaqqye/seb_exam_gate/internal/config"
	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
)

const redisPingTimeout = 2 * time.Second

func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// OpenStatusCache builds the cache selected by STATUS_CACHE. An unreachable
// redis is an error, not a fallback to memory.
func OpenStatusCache(ctx context.Context, cfg *config.Config) (lockdown.StatusCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StatusCache {
	case "", "memory":
		return lockdown.NewMemoryCache(), noop, nil
	case "off", "none":
		return lockdown.NoCache{}, noop, nil
	case "redis":
		client, err := ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return lockdown.NewRedisCache(client, cfg.RedisKeyPrefix), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown STATUS_CACHE %q", cfg.StatusCache)
	}
}

package lockdown

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "seb:exam_status"

// RedisCache shares the status cache between processes. Each course is one
// hash (field = username) so a bulk cancel is a single DEL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) key(courseID string) string {
	return r.prefix + ":" + courseID
}

func (r *RedisCache) Get(ctx context.Context, courseID, username string) (bool, bool, error) {
	val, err := r.client.HGet(ctx, r.key(courseID), username).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == "1", true, nil
}

func (r *RedisCache) Set(ctx context.Context, courseID, username string, finalized bool) error {
	val := "0"
	if finalized {
		val = "1"
	}
	return r.client.HSet(ctx, r.key(courseID), username, val).Err()
}

func (r *RedisCache) Delete(ctx context.Context, courseID, username string) error {
	return r.client.HDel(ctx, r.key(courseID), username).Err()
}

func (r *RedisCache) InvalidateCourse(ctx context.Context, courseID string) error {
	return r.client.Del(ctx, r.key(courseID)).Err()
}

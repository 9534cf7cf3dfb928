package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultDisplayPrefix = "storefront:display:"

// RedisDisplayStore keeps display fields as plain string keys under a prefix.
type RedisDisplayStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisDisplayStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisDisplayStore {
	if prefix == "" {
		prefix = DefaultDisplayPrefix
	}
	return &RedisDisplayStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisDisplayStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisDisplayStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *RedisDisplayStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.rdb.Del(ctx, full...).Err()
}

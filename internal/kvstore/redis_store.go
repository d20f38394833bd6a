package kvstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps convenience values in Redis under a shared prefix so
// they survive restarts and are visible to every instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password, prefix string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the Redis-backed session cache. Keys are namespaced per
// application id so several apps can share one Redis instance.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache namespaced under
// "<appID>:usercache:".
func NewRedisCache(client *redis.Client, appID string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: appID + ":usercache:",
	}
}

func (r *RedisCache) key(id string) string {
	return r.prefix + id
}

func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	// No TTL here: snapshot expiry is Redis configuration, not ours.
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

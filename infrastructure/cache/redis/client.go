// ABOUTME: Redis cache implementation using go-redis client
// ABOUTME: Provides distributed caching with TTL support and connection pooling

package redis

import (
	"context"
	"errors"
	"time"

	"readaloud-api/core/interfaces"
	"readaloud-api/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client redis.UniversalClient
	owned  bool
}

// NewClient dials Redis and checks the connection
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisCache creates a new Redis cache instance with its own connection
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: client, owned: true}, nil
}

// NewRedisCacheWithClient creates a cache over a shared client. Close does
// not close the client.
func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, interfaces.ErrCacheMiss
		}
		return nil, err
	}

	return val, nil
}

// Set stores a value in Redis with the given TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Redis SET with 0 TTL means no expiration
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key from Redis. A missing key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection when the cache owns it
func (c *RedisCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}

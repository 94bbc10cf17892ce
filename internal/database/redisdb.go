package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisDB implements the Store interface using Redis.
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB initializes a new RedisDB instance.
func NewRedisDB(ctx context.Context, cfg *DatabaseConfig) (*RedisDB, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisDB{client: rdb}, nil
}

// NewRedisDBFromClient wraps an already configured client.
func NewRedisDBFromClient(client *redis.Client) *RedisDB {
	return &RedisDB{client: client}
}

// Read returns the value stored under key.
func (r *RedisDB) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, storeKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

// Write stores value under key without expiration.
func (r *RedisDB) Write(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, storeKey(key), value, 0).Err()
}

// Delete removes key.
func (r *RedisDB) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, storeKey(key)).Err()
}

// Close closes the Redis client connection.
func (r *RedisDB) Close(ctx context.Context) error {
	return r.client.Close()
}

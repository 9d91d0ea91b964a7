package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a KVClient over a Redis server. Values never expire.
type RedisClient struct {
	rdb *redis.Client
}

func NewRedisClient(addr string) *RedisClient {
	return &RedisClient{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewRedisClientFrom wraps an existing client.
func NewRedisClientFrom(rdb *redis.Client) *RedisClient {
	return &RedisClient{rdb: rdb}
}

func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, redisError(err)
	}
	return data, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value []byte) error {
	return redisError(c.rdb.Set(ctx, key, value, 0).Err())
}

func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return redisError(c.rdb.Del(ctx, key).Err())
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return redisError(c.rdb.Ping(ctx).Err())
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

// redisError passes replies from the server through and marks everything
// else (dial, timeout, closed pool) as a connectivity failure.
func redisError(err error) error {
	if err == nil {
		return nil
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		return err
	}
	return unavailable(err)
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient stores JSON-encoded values with a TTL.
type RedisClient[T any] struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisClient[T any](client *redis.Client, logger *zap.Logger) *RedisClient[T] {
	return &RedisClient[T]{client: client, logger: logger}
}

func (c *RedisClient[T]) Set(
	ctx context.Context,
	key string,
	value T,
	expiration time.Duration,
) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *RedisClient[T]) Get(ctx context.Context, key string, returnValue *T) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, returnValue)
}

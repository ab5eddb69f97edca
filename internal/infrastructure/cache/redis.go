package cache

import (
	"context"
	"fmt"
	"time"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const nonceKeyPrefix = "x402:nonce:"

func InitRedis(addr, password string, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", addr))
	return rdb, nil
}

type nonceStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisNonceCache shares seen nonces between gateway replicas.
type RedisNonceCache struct {
	rdb nonceStore
}

var _ interfaces.INonceCache = (*RedisNonceCache)(nil)

func NewRedisNonceCache(rdb *redis.Client) *RedisNonceCache {
	return &RedisNonceCache{rdb: rdb}
}

func (c *RedisNonceCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, nonceKeyPrefix+key, 1, ttl).Result()
}

func (c *RedisNonceCache) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, nonceKeyPrefix+key).Err()
}

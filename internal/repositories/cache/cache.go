// Package cache wraps the Redis client used for webhook dedup marks and
// completion broadcasts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Exists reports whether the key is present.
func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache key: %w", err)
	}
	return n > 0, nil
}

// SetNX sets the key only if absent. The bool reports whether this call
// claimed the key.
func (s *CacheService) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = s.ttl
	}
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// Publish emits a message on a pub/sub channel.
func (s *CacheService) Publish(ctx context.Context, channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal publish payload: %w", err)
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

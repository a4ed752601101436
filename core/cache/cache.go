package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/david-fold-studio/life-sphere-habits/core/logger"
)

// Cache fronts Redis for the merged week view. Each source half (local
// store, external provider) is cached under its own key so either half can
// be dropped independently, and a commit drops both for the owner so a
// render never mixes fresh and stale halves.
type Cache interface {
	GetWeek(ctx context.Context, source, ownerID, weekStart string) ([]byte, bool, error)
	SetWeek(ctx context.Context, source, ownerID, weekStart string, payload []byte, ttl time.Duration) error
	InvalidateOwner(ctx context.Context, ownerID string) error
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewCache(cfg CacheConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func weekKey(source, ownerID, weekStart string) string {
	return fmt.Sprintf("week:%s:%s:%s", source, ownerID, weekStart)
}

func (c *redisCache) GetWeek(ctx context.Context, source, ownerID, weekStart string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, weekKey(source, ownerID, weekStart)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *redisCache) SetWeek(ctx context.Context, source, ownerID, weekStart string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, weekKey(source, ownerID, weekStart), payload, ttl).Err()
}

// InvalidateOwner deletes every cached week half for the owner, local and
// external alike.
func (c *redisCache) InvalidateOwner(ctx context.Context, ownerID string) error {
	pattern := fmt.Sprintf("week:*:%s:*", ownerID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Error("Cache:InvalidateOwner:Del:Error", "error", err, "owner_id", ownerID)
		return err
	}
	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

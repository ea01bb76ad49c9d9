package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// RedisCacheService is the production ICacheService.
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCacheService(redisURL string, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: "dispatch:",
		ttl:    24 * time.Hour,
	}, nil
}

// SetTTL overrides the default entry lifetime.
func (rcs *RedisCacheService) SetTTL(ttl time.Duration) {
	rcs.ttl = ttl
}

// Get implements ICacheService.
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.DispatchResult, bool, error) {
	val, err := rcs.client.Get(ctx, rcs.prefix+key).Result()
	if err == redis.Nil {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("redis get failed", zap.Error(err), zap.String("key", key))
		return nil, false, err
	}

	var result models.DispatchResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		rcs.logger.Error("cached result unreadable, dropping", zap.Error(err), zap.String("key", key))
		rcs.client.Del(ctx, rcs.prefix+key)
		rcs.misses.Add(1)
		return nil, false, nil
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("resolution cache hit", zap.String("key", key))
	return &result, true, nil
}

// Set implements ICacheService.
func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.DispatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached result: %w", err)
	}
	if err := rcs.client.Set(ctx, rcs.prefix+key, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("redis set failed", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Delete implements ICacheService.
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	return rcs.client.Del(ctx, rcs.prefix+key).Err()
}

// Clear implements ICacheService.
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	keys, err := rcs.client.Keys(ctx, rcs.prefix+"*").Result()
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	if len(keys) > 0 {
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete cache keys: %w", err)
		}
	}
	rcs.logger.Info("resolution cache cleared", zap.Int("keys_deleted", len(keys)))
	return nil
}

// GetStats implements ICacheService.
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	items := int64(0)
	if keys, err := rcs.client.Keys(ctx, rcs.prefix+"*").Result(); err == nil {
		items = int64(len(keys))
	}

	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}, nil
}

// GetTTL implements ICacheService.
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return rcs.client.TTL(ctx, rcs.prefix+key).Result()
}

// Close implements ICacheService.
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

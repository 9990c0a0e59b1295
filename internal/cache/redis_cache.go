package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lunchmap:search:"

// RedisCache keeps finished search results for a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a Redis connection and pings it.
func Connect(cfg *config.RedisConfig) (*RedisCache, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return New(client, cfg.TTL), nil
}

func New(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached result. Any redis or decode error is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.SearchResult, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn("Search cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	var result model.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warn("Search cache entry is corrupt", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *model.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode search result: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		logger.Error("Failed to cache search result", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

func (c *RedisCache) Close() error {
	logger.Info("Closing Redis connection", nil)
	return c.client.Close()
}

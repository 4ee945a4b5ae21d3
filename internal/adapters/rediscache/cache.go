// Package rediscache puts a Redis read-through cache in front of a dataset provider.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

const (
	defaultPrefix = "stockmatrix:dataset"
	defaultTTL    = 5 * time.Minute
)

// Cache implements ports.DatasetProvider. Hits are served from Redis; misses
// go to the wrapped provider and are stored with a TTL. Redis failures are
// logged and never fail a fetch the wrapped provider can serve.
type Cache struct {
	client *redis.Client
	next   ports.DatasetProvider
	ttl    time.Duration
	prefix string
	logger ports.Logger
}

// Config holds configuration for the cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
	Logger   ports.Logger
}

// New wraps next with a Redis cache.
func New(cfg Config, next ports.DatasetProvider) (*Cache, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for redis cache")
	}
	if next == nil {
		return nil, fmt.Errorf("dataset provider is required: %w", ports.ErrConfigurationError)
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return newCache(client, next, cfg), nil
}

func newCache(client *redis.Client, next ports.DatasetProvider, cfg Config) *Cache {
	c := &Cache{client: client, next: next, ttl: cfg.TTL, prefix: cfg.Prefix, logger: cfg.Logger}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	if c.prefix == "" {
		c.prefix = defaultPrefix
	}
	return c
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w: %w", ports.ErrDataSourceUnavailable, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Key returns the Redis key holding the dataset of cfg.
func (c *Cache) Key(cfg domain.ChartConfig) string {
	return c.prefix + ":" + cfg.Key()
}

// FetchDataset serves cfg from Redis, falling back to the wrapped provider.
func (c *Cache) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	key := c.Key(cfg)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		ds, decodeErr := decode(raw)
		if decodeErr == nil {
			ds.Config = cfg
			c.logger.Debug(ctx, "Dataset cache hit", map[string]interface{}{"key": key})
			return ds, nil
		}
		c.logger.Warn(ctx, "Discarding unreadable cached dataset", map[string]interface{}{"key": key, "error": decodeErr.Error()})
	case errors.Is(err, redis.Nil):
		c.logger.Debug(ctx, "Dataset cache miss", map[string]interface{}{"key": key})
	default:
		c.logger.Warn(ctx, "Dataset cache unavailable", map[string]interface{}{"key": key, "error": err.Error()})
	}

	ds, err := c.next.FetchDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, ds)
	return ds, nil
}

// Invalidate drops the cached dataset of cfg.
func (c *Cache) Invalidate(ctx context.Context, cfg domain.ChartConfig) error {
	if err := c.client.Del(ctx, c.Key(cfg)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w: %w", cfg.Key(), ports.ErrDataSourceUnavailable, err)
	}
	return nil
}

func (c *Cache) store(ctx context.Context, key string, ds *domain.Dataset) {
	raw, err := json.Marshal(ds)
	if err != nil {
		c.logger.Warn(ctx, "Dataset not cached", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "Dataset not cached", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func decode(raw []byte) (*domain.Dataset, error) {
	var ds domain.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
	}
	if ds.Candles == nil || len(ds.Candles.Points) == 0 {
		return nil, fmt.Errorf("cached dataset has no candles: %w", ports.ErrMalformedPayload)
	}
	if ds.Volume == nil {
		ds.Volume = &domain.Series{Name: domain.VolumeSeries, Role: domain.RoleVolume}
	}
	if ds.Averages == nil {
		ds.Averages = make(map[string]*domain.Series)
	}
	if ds.Technical == nil {
		ds.Technical = make(map[string]*domain.Series)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
	}
	return &ds, nil
}

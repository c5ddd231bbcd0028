// Package redis caches ranked leaderboard views so broadcast-heavy periods
// do not hammer the score store. The store stays the source of truth; every
// cache failure degrades to a store read.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/typing-racer/internal/config"
	"github.com/typing-racer/internal/domain"
)

// Cache provides Redis-backed leaderboard view caching
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a new leaderboard cache
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    cfg.CacheTTL,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// viewKey returns the Redis key for a filter's cached view
func (c *Cache) viewKey(filter domain.Filter) string {
	return fmt.Sprintf("leaderboard:view:%s", filter)
}

// GetLeaderboard returns the cached ranked view, or nil on a miss
func (c *Cache) GetLeaderboard(ctx context.Context, filter domain.Filter) ([]domain.RankedRecord, error) {
	data, err := c.client.Get(ctx, c.viewKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached view: %w", err)
	}

	var entries []domain.RankedRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding cached view: %w", err)
	}
	return entries, nil
}

// SetLeaderboard stores a ranked view with the configured TTL
func (c *Cache) SetLeaderboard(ctx context.Context, filter domain.Filter, entries []domain.RankedRecord) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}
	if err := c.client.Set(ctx, c.viewKey(filter), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching view: %w", err)
	}
	return nil
}

// Invalidate drops every cached view. Called after each accepted submission
// and after retention purges.
func (c *Cache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, 3)
	for _, filter := range []domain.Filter{domain.FilterDaily, domain.FilterWeekly, domain.FilterAllTime} {
		keys = append(keys, c.viewKey(filter))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating views: %w", err)
	}
	return nil
}

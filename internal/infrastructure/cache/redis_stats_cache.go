package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// defaultStatsTTL bounds staleness when invalidation is missed
const defaultStatsTTL = 5 * time.Minute

// RedisStatsCache caches per-user listing statistics in Redis.
// Suitable for distributed deployments where multiple instances share
// cached aggregates; a completed sync invalidates the owning user's entry
// so the next stats read recomputes from the database.
type RedisStatsCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStatsCache creates a new Redis-backed stats cache
func NewRedisStatsCache(cfg RedisConfig, ttl time.Duration) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStatsCacheWithClient(client, "", ttl), nil
}

// NewRedisStatsCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisStatsCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStatsCache {
	if keyPrefix == "" {
		keyPrefix = "mirror:stats:"
	}
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &RedisStatsCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisStatsCache) key(userID int64) string {
	return fmt.Sprintf("%s%d", c.keyPrefix, userID)
}

// Get returns the cached stats for a user, or nil on a cache miss.
// A corrupt entry is treated as a miss and evicted.
func (c *RedisStatsCache) Get(ctx context.Context, userID int64) (*mirror.ListingStats, error) {
	payload, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached stats: %w", err)
	}

	var stats mirror.ListingStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		c.client.Del(ctx, c.key(userID))
		return nil, nil
	}
	return &stats, nil
}

// Set caches a user's stats with the configured TTL
func (c *RedisStatsCache) Set(ctx context.Context, userID int64, stats *mirror.ListingStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}
	return nil
}

// Invalidate drops a user's cached stats
func (c *RedisStatsCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached stats: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisStatsCache) GetClient() *redis.Client {
	return c.client
}

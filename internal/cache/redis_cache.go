package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// ErrCacheMiss is returned when no result is cached for the given inputs
var ErrCacheMiss = errors.New("stake result not found in cache")

// RedisCache caches computed stake results in Redis
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
	logger    zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 15 * time.Minute

	// Namespace separates results computed under different calculator parameters,
	// e.g. "edge5" for a 5% good-edge threshold. Empty means no namespace.
	Namespace string
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client:    client,
		ttl:       config.TTL,
		namespace: config.Namespace,
		logger:    logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Key builds the cache key for a set of inputs: stake:{namespace}:{bankroll}:{odds}:{probability}:{risk},
// with the namespace segment left out when empty. decimal.String trims trailing zeros, so 2 and 2.00 share a key.
func Key(namespace string, in models.StakeInputs) string {
	inputs := fmt.Sprintf("%s:%s:%s:%s",
		in.Bankroll.String(),
		in.DecimalOdds.String(),
		in.EstimatedProbabilityPct.String(),
		in.RiskFractionPct.String(),
	)
	if namespace == "" {
		return "stake:" + inputs
	}
	return "stake:" + namespace + ":" + inputs
}

// Key returns the key this cache stores the result for in under
func (c *RedisCache) Key(in models.StakeInputs) string {
	return Key(c.namespace, in)
}

// Set caches a stake result under its inputs
func (c *RedisCache) Set(ctx context.Context, result *models.StakeResult) error {
	key := c.Key(result.Inputs)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal stake result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached stake result")

	return nil
}

// Get retrieves a cached stake result for the given inputs
func (c *RedisCache) Get(ctx context.Context, in models.StakeInputs) (*models.StakeResult, error) {
	key := c.Key(in)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var result models.StakeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stake result: %w", err)
	}

	return &result, nil
}

// SetBatch caches multiple stake results in one pipeline
func (c *RedisCache) SetBatch(ctx context.Context, results []*models.StakeResult) error {
	if len(results) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	for _, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to marshal stake result")
			continue
		}
		pipe.Set(ctx, c.Key(result.Inputs), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	c.logger.Info().
		Int("count", len(results)).
		Msg("cached batch of stake results")

	return nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

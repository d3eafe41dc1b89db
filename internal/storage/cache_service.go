package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

// KeyNamespace prefixes every key the engine writes, so Redis can be shared
const KeyNamespace = "fraudengine"

// CacheKeyType names a family of cache keys
type CacheKeyType string

const (
	// CacheKeyReports is for per-wallet report counts
	CacheKeyReports CacheKeyType = "reports"
)

// CacheService stores JSON values in Redis with a default TTL.
// Errors are categorized as cache errors; a miss is not an error.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a cache service with the given default TTL
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{redis: redis, ttl: ttl}
}

// GenerateCacheKey builds <namespace>:<type>:<param>... with address-normalized
// params, so hex addresses in any case share one entry
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+2)
	parts = append(parts, KeyNamespace, string(keyType))
	for _, p := range params {
		parts = append(parts, types.NormalizeAddress(strings.TrimSpace(p)))
	}
	return strings.Join(parts, ":")
}

// GenerateReportsKey returns the report-count key for a wallet
func (c *CacheService) GenerateReportsKey(address string) string {
	return c.GenerateCacheKey(CacheKeyReports, address)
}

// Set stores value with the default TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("encode "+key, err)
	}
	if err := c.redis.set(ctx, key, data, ttl); err != nil {
		return apperrors.NewCacheError("set "+key, err)
	}
	return nil
}

// Get decodes the value at key into dest and reports whether it was found
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheError("get "+key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, apperrors.NewCacheError("decode "+key, err)
	}
	return true, nil
}

// Invalidate removes keys; no keys is a no-op
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.del(ctx, keys...); err != nil {
		return apperrors.NewCacheError("invalidate", err)
	}
	return nil
}

// Exists reports whether key is present
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.redis.exists(ctx, key)
	if err != nil {
		return false, apperrors.NewCacheError("exists "+key, err)
	}
	return ok, nil
}

// GetTTL returns the default TTL
func (c *CacheService) GetTTL() time.Duration {
	return c.ttl
}

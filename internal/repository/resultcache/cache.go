package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/cachekey"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// DefaultKeyPrefix namespaces every key written by the cache.
const DefaultKeyPrefix = "prodsearch:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
	Del(ctx context.Context, keys ...string) (int, error)
	Ping(ctx context.Context) error
}

// Cache is a TTL-bounded JSON blob cache in front of the search pipeline.
// Reads degrade to a miss on any failure; writes are best-effort.
type Cache struct {
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with labels kind/op/result, passed explicitly; may be nil.
func New(s store, keyPrefix string, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		prefix:     keyPrefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get decodes the value stored under key into dst.
// Absence, store failure and undecodable data all report false.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	kind := kindOf(key)
	data, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc(kind, "get", metrics.CacheMiss)
			return false
		}
		c.inc(kind, "get", metrics.CacheError)
		c.logger.Warn("Result cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.inc(kind, "get", metrics.CacheError)
		c.logger.Warn("Result cache entry undecodable, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}

	c.inc(kind, "get", metrics.CacheHit)
	return true
}

// Set encodes value as JSON and stores it with ttl. Failures are logged, never returned.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	kind := kindOf(key)
	data, err := json.Marshal(value)
	if err != nil {
		c.inc(kind, "set", metrics.CacheError)
		c.logger.Warn("Result cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, c.prefix+key, data, ttl); err != nil {
		c.inc(kind, "set", metrics.CacheError)
		c.logger.Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.inc(kind, "set", "ok")
}

// DeletePattern removes every key starting with prefix and returns how many were deleted.
func (c *Cache) DeletePattern(ctx context.Context, prefix string) (int, error) {
	kind := kindOf(prefix)
	keys, err := c.store.ScanPrefix(ctx, c.prefix+prefix)
	if err != nil {
		c.inc(kind, "delete", metrics.CacheError)
		return 0, fmt.Errorf("scan %q: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := c.store.Del(ctx, keys...)
	if err != nil {
		c.inc(kind, "delete", metrics.CacheError)
		return n, fmt.Errorf("delete %d keys under %q: %w", len(keys), prefix, err)
	}
	c.inc(kind, "delete", "ok")
	c.logger.Info("Result cache invalidated",
		zap.String("prefix", prefix),
		zap.Int("deleted", n),
	)
	return n, nil
}

// Delete removes a single key. It reports whether the key existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.store.Del(ctx, c.prefix+key)
	if err != nil {
		c.inc(kindOf(key), "delete", metrics.CacheError)
		return false, fmt.Errorf("delete %q: %w", key, err)
	}
	c.inc(kindOf(key), "delete", "ok")
	return n > 0, nil
}

// GetResults reads a ranked result list stored by SetResults.
func (c *Cache) GetResults(ctx context.Context, key string) ([]result.Scored, bool) {
	var e entry
	if !c.Get(ctx, key, &e) {
		return nil, false
	}
	items, err := e.toDomain()
	if err != nil {
		c.logger.Warn("Result cache entry rejected", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return items, true
}

// SetResults stores a ranked result list.
func (c *Cache) SetResults(ctx context.Context, key string, items []result.Scored, ttl time.Duration) {
	c.Set(ctx, key, fromDomain(items), ttl)
}

// Ping checks the backing store.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("result cache: %w", err)
	}
	return nil
}

func (c *Cache) inc(kind, op, res string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(kind, op, res).Inc()
	}
}

// kindOf maps a key or prefix to a low-cardinality metric label.
func kindOf(key string) string {
	switch {
	case strings.HasPrefix(key, cachekey.SearchPrefix):
		return "search"
	case strings.HasPrefix(key, cachekey.RecommendationsPrefix):
		return "recommendations"
	default:
		return "other"
	}
}

package resource

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"support-finder/internal/logger"
	"support-finder/internal/metrics"
)

const categoryKeyPrefix = "support-finder:category:"

// CategoryCache is a read-through slug lookup owned by whoever constructs it.
// A process-local map sits in front of an optional shared redis tier.
// Missing slugs are never cached so a later insert becomes visible.
type CategoryCache struct {
	repo  Repository
	rdb   *redis.Client
	ttl   time.Duration
	log   logger.Logger
	mu    sync.RWMutex
	local map[string]Category
}

// NewCategoryCache builds a cache; rdb may be nil to keep it process-local.
func NewCategoryCache(repo Repository, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CategoryCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &CategoryCache{
		repo:  repo,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.WithFields(map[string]interface{}{"component": "category_cache"}),
		local: make(map[string]Category),
	}
}

// Get resolves a slug. It returns (nil, nil) when the category does not exist.
func (c *CategoryCache) Get(ctx context.Context, slug string) (*Category, error) {
	c.mu.RLock()
	cat, ok := c.local[slug]
	c.mu.RUnlock()
	if ok {
		metrics.CategoryCacheLookups.WithLabelValues("memory").Inc()
		return &cat, nil
	}

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, categoryKeyPrefix+slug).Bytes()
		switch {
		case err == nil:
			if jerr := json.Unmarshal(raw, &cat); jerr == nil {
				metrics.CategoryCacheLookups.WithLabelValues("redis").Inc()
				c.remember(cat)
				return &cat, nil
			}
		case !errors.Is(err, redis.Nil):
			// Shared tier is best-effort; fall through to the store.
			c.log.Warn("redis category lookup failed", map[string]interface{}{"slug": slug, "error": err})
		}
	}

	found, err := c.repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if found == nil {
		metrics.CategoryCacheLookups.WithLabelValues("missing").Inc()
		return nil, nil
	}
	metrics.CategoryCacheLookups.WithLabelValues("store").Inc()
	c.remember(*found)
	if c.rdb != nil {
		if raw, jerr := json.Marshal(found); jerr == nil {
			if serr := c.rdb.Set(ctx, categoryKeyPrefix+slug, raw, c.ttl).Err(); serr != nil {
				c.log.Warn("redis category store failed", map[string]interface{}{"slug": slug, "error": serr})
			}
		}
	}
	return found, nil
}

func (c *CategoryCache) remember(cat Category) {
	c.mu.Lock()
	c.local[cat.Slug] = cat
	c.mu.Unlock()
}

// Invalidate drops one slug from both tiers.
func (c *CategoryCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	delete(c.local, slug)
	c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, categoryKeyPrefix+slug).Err()
}

// InvalidateAll empties both tiers.
func (c *CategoryCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.local = make(map[string]Category)
	c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, categoryKeyPrefix+"*", 100).Iterator()
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
	return c.rdb.Del(ctx, keys...).Err()
}

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/metrics"
)

// Cache stores vectors by key. Writes for one key always carry the same
// vector, so implementations need no coordination beyond safe map access.
type Cache interface {
	Get(ctx context.Context, key string) (pgvector.Vector, bool, error)
	Set(ctx context.Context, key string, vec pgvector.Vector) error
	Delete(ctx context.Context, key string) error
	Backend() string
}

// CacheKey hashes the model name and text into a stable key.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is a bounded in-process cache. When full, an arbitrary entry
// is evicted.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]pgvector.Vector
	maxEntries int
}

// NewMemoryCache returns a cache holding at most maxEntries vectors
// (unbounded when maxEntries <= 0).
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{entries: make(map[string]pgvector.Vector), maxEntries: maxEntries}
}

func (c *MemoryCache) Backend() string { return "memory" }

func (c *MemoryCache) Get(_ context.Context, key string) (pgvector.Vector, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, vec pgvector.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = vec
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedProvider consults a Cache before calling the wrapped provider.
// Cache failures are logged and treated as misses.
type CachedProvider struct {
	inner Provider
	cache Cache
}

// WithCache layers cache in front of p.
func WithCache(p Provider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: p, cache: cache}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) Similarity(a, b pgvector.Vector) float64 {
	return c.inner.Similarity(a, b)
}

func (c *CachedProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	key := CacheKey(c.inner.Name(), text)

	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("backend", c.cache.Backend()).Msg("embedding cache read failed")
	}
	if ok {
		metrics.EmbeddingCacheHits.WithLabelValues(c.cache.Backend()).Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheMisses.WithLabelValues(c.cache.Backend()).Inc()

	vec, err = c.inner.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("backend", c.cache.Backend()).Msg("embedding cache write failed")
	}
	return vec, nil
}

// Forget drops the cached vector for text. Called when the stored fields
// behind a canonical text change.
func (c *CachedProvider) Forget(ctx context.Context, text string) error {
	return c.cache.Delete(ctx, CacheKey(c.inner.Name(), text))
}

// Package cache provides the advisory result cache for the search pipeline:
// a bounded, concurrent-safe LRU whose entries expire after a fixed TTL.
// Callers must behave correctly if the cache were absent entirely; it buys
// latency, never correctness.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/podsift/podsift/engine/domain"
)

const (
	// DefaultSize is the default maximum number of cached result sets.
	DefaultSize = 100
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 300 * time.Second
)

// Key derives the deterministic cache key for a search. It is a function of
// the normalized query and every parameter that changes result content, and
// of nothing request-scoped. Offset is deliberately excluded: pagination
// slices a cached list, it does not change it.
func Key(normalizedQuery string, searchLimit int, minScore float64) string {
	canonical := fmt.Sprintf("q=%s|limit=%d|min_score=%.4f", normalizedQuery, searchLimit, minScore)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// ResultCache stores fused, enriched result lists keyed by Key. Both the
// TTL check and the capacity eviction are handled by the underlying
// expirable LRU, which is safe for concurrent use.
type ResultCache struct {
	lru *expirable.LRU[string, []domain.ScoredResult]
}

// New creates a ResultCache. Non-positive size or ttl fall back to defaults.
func New(size int, ttl time.Duration) *ResultCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, []domain.ScoredResult](size, nil, ttl),
	}
}

// Get returns the cached result list for key, or ok=false on a miss or an
// expired entry. The returned slice is a copy; callers may not mutate the
// cached payload.
func (c *ResultCache) Get(key string) ([]domain.ScoredResult, bool) {
	payload, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(payload), true
}

// Put stores a result list, evicting the least-recently-used entry if the
// cache is at capacity. The payload is copied on the way in for the same
// immutability reason as Get.
func (c *ResultCache) Put(key string, payload []domain.ScoredResult) {
	c.lru.Add(key, slices.Clone(payload))
}

// Len returns the current entry count.
func (c *ResultCache) Len() int { return c.lru.Len() }

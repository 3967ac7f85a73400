package embed

import (
	"context"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

// DefaultLRUSize bounds the in-process embedding cache.
const DefaultLRUSize = 4096

// LRUCache is an in-process Cache with least-recently-used eviction.
type LRUCache struct {
	entries *lru.Cache[string, []float32]
}

// NewLRUCache creates an LRU cache holding up to size vectors.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	entries, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, errors.Wrap(err, "create lru cache")
	}
	return &LRUCache{entries: entries}, nil
}

// Get implements Cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]float32, error) {
	vec, ok := c.entries.Get(key)
	if !ok {
		return nil, internalerr.ErrCacheMiss
	}
	return append([]float32(nil), vec...), nil
}

// Set implements Cache.
func (c *LRUCache) Set(_ context.Context, key string, vec []float32) error {
	c.entries.Add(key, append([]float32(nil), vec...))
	return nil
}

// Len returns the number of cached vectors.
func (c *LRUCache) Len() int { return c.entries.Len() }

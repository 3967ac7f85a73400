package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

var errEmptyVector = errors.New("embedder returned no vector")

// Cache stores vectors by key. Get returns internalerr.ErrCacheMiss when the
// key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// Key derives a cache key from the model name and text.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}

// Cached wraps an Embedder with a Cache. Cache failures are logged and
// treated as misses.
type Cached struct {
	next   Embedder
	cache  Cache
	model  string
	logger *zap.SugaredLogger
}

// CachedOption configures a Cached embedder.
type CachedOption func(*Cached)

// WithLogger sets the logger for cache errors.
func WithLogger(logger *zap.SugaredLogger) CachedOption {
	return func(c *Cached) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCached wraps next with cache.
func NewCached(next Embedder, cache Cache, opts ...CachedOption) *Cached {
	c := &Cached{
		next:   next,
		cache:  cache,
		model:  ModelOf(next),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the wrapped embedder's model name.
func (c *Cached) Model() string { return c.model }

// Embed serves cached vectors and forwards only the misses, in one batch.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		key := Key(c.model, text)
		vec, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			out[i] = vec
			continue
		case !errors.Is(err, internalerr.ErrCacheMiss):
			c.logger.Warnw("embedding cache get failed", "key", key, "error", err)
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, errors.Newf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.cache.Set(ctx, Key(c.model, missTexts[j]), vecs[j]); err != nil {
			c.logger.Warnw("embedding cache set failed", "error", err)
		}
	}
	return out, nil
}

package embed

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestHashEmbedderDeterministic(t *testing.T) {
	h := HashEmbedder{Dimension: 64}
	ctx := context.Background()

	a, err := h.Embed(ctx, []string{"save a status", "Save a STATUS"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Len(t, a[0], 64)
	assert.Equal(t, a[0], a[1])

	b, err := h.Embed(ctx, []string{"save a status", "mute notifications"})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
	assert.Less(t, Cosine(b[0], b[1]), 0.99)

	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	assert.Equal(t, "hash", ModelOf(h))
}

func TestEmbedOne(t *testing.T) {
	vec, err := EmbedOne(context.Background(), HashEmbedder{}, "hello")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultHashDimension)

	_, err = EmbedOne(context.Background(), HashEmbedder{}, "")
	assert.NoError(t, err, "empty text embeds to the zero vector")
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (c *countingEmbedder) Model() string { return "counting" }

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachedServesHits(t *testing.T) {
	inner := &countingEmbedder{}
	cache, err := NewLRUCache(8)
	require.NoError(t, err)
	c := NewCached(inner, cache, WithLogger(zaptest.NewLogger(t).Sugar()))
	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	second, err := c.Embed(ctx, []string{"bb", "ccc", "a"})
	require.NoError(t, err)

	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, []float32{3, 1}, second[1])
	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"ccc"}, inner.calls[1], "only misses are forwarded")
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, "counting", c.Model())
}

func TestCachedPropagatesErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("model offline")}
	cache, err := NewLRUCache(0)
	require.NoError(t, err)

	_, err = NewCached(inner, cache).Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []float32) error {
	return errors.New("connection refused")
}

func TestCachedToleratesCacheFailures(t *testing.T) {
	inner := &countingEmbedder{}
	out, err := NewCached(inner, brokenCache{}).Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, out[0])
}

func TestLRUCacheMissAndCopy(t *testing.T) {
	cache, err := NewLRUCache(1)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cache.Get(ctx, "k")
	assert.True(t, errors.Is(err, internalerr.ErrCacheMiss))

	vec := []float32{1, 2}
	require.NoError(t, cache.Set(ctx, "k", vec))
	vec[0] = 99
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got)

	require.NoError(t, cache.Set(ctx, "k2", []float32{3}))
	_, err = cache.Get(ctx, "k")
	assert.True(t, errors.Is(err, internalerr.ErrCacheMiss), "size 1 cache evicts the oldest key")
}

func TestKeyScopedByModel(t *testing.T) {
	assert.Equal(t, Key("m", "text"), Key("m", "text"))
	assert.NotEqual(t, Key("m1", "text"), Key("m2", "text"))
	assert.Len(t, Key("m", "text"), 32)
}

func TestVectorEncoding(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, float32(math.Pi)}
	got, err := DecodeVector(EncodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

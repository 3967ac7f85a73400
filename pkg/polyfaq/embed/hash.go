package embed

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashDimension is the vector size of HashEmbedder.
const DefaultHashDimension = 256

// HashEmbedder is an offline, deterministic embedder: a feature-hashed bag
// of words and character trigrams, L2-normalized. It needs no model and is
// used for local runs and tests.
type HashEmbedder struct {
	Dimension int
}

// Model implements Modeler.
func (h HashEmbedder) Model() string { return "hash" }

// Embed implements Embedder.
func (h HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dim := h.Dimension
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text, dim)
	}
	return out, nil
}

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		vec[xxhash.Sum64String("w:"+word)%uint64(dim)] += 1
		runes := []rune(" " + word + " ")
		for j := 0; j+3 <= len(runes); j++ {
			vec[xxhash.Sum64String("t:"+string(runes[j:j+3]))%uint64(dim)] += 0.5
		}
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= norm
	}
	return vec
}

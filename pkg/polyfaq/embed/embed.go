// Package embed defines the text embedding collaborator used by the semantic
// matching strategy, plus caching wrappers around it.
package embed

import (
	"context"
	"math"
)

// Embedder turns texts into vectors. Implementations must return one vector
// per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Modeler is implemented by embedders that know their model name. The name
// is recorded in the index and scopes cache keys.
type Modeler interface {
	Model() string
}

// ModelOf returns e's model name, or "" when unknown.
func ModelOf(e Embedder) string {
	if m, ok := e.(Modeler); ok {
		return m.Model()
	}
	return ""
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, errEmptyVector
	}
	return vecs[0], nil
}

// Cosine returns the cosine similarity of a and b clamped to [-1, 1].
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

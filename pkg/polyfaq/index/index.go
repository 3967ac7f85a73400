// Package index builds and persists the searchable FAQ index: one document
// per FAQ entry with a multilingual keyword set, plus a corpus-wide IDF table.
package index

import (
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Version of the persisted index format.
const Version = 1

// Document is the searchable unit derived from one FAQ entry.
type Document struct {
	ID corpus.ID `json:"id"`
	// Keywords is sorted and deduplicated.
	Keywords   []string                `json:"keywords"`
	Questions  map[lang.Code]string    `json:"questions"`
	Answers    map[lang.Code]string    `json:"answers"`
	Embeddings map[lang.Code][]float32 `json:"embeddings,omitempty"`
}

// HasKeyword reports whether kw is one of the document's keywords.
func (d *Document) HasKeyword(kw string) bool {
	i := sort.SearchStrings(d.Keywords, kw)
	return i < len(d.Keywords) && d.Keywords[i] == kw
}

// IDFTable maps keywords to importance weights.
type IDFTable map[string]float64

// IDF returns ln((n+1)/(df+1)) + 1: strictly positive, strictly
// decreasing in df, and 1 when df == n.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// Weight returns the weight of kw, or fallback for unknown keywords.
func (t IDFTable) Weight(kw string, fallback float64) float64 {
	if w, ok := t[kw]; ok {
		return w
	}
	return fallback
}

// Max returns the largest weight in the table, or 0 when empty.
func (t IDFTable) Max() float64 {
	var top float64
	for _, w := range t {
		if w > top {
			top = w
		}
	}
	return top
}

// SearchIndex is the persisted artifact consumed by the matcher. It is
// read-only once built or loaded.
type SearchIndex struct {
	Version        int             `json:"version"`
	BuildID        string          `json:"build_id"`
	BuiltAt        time.Time       `json:"built_at"`
	Analysis       ingest.Analysis `json:"analysis"`
	Languages      []lang.Code     `json:"languages"`
	EmbeddingModel string          `json:"embedding_model,omitempty"`
	Documents      []Document      `json:"documents"`
	IDF            IDFTable        `json:"idf_scores"`
}

// Len returns the number of documents.
func (ix *SearchIndex) Len() int { return len(ix.Documents) }

// Get returns the document for id.
func (ix *SearchIndex) Get(id corpus.ID) (*Document, bool) {
	for i := range ix.Documents {
		if ix.Documents[i].ID == id {
			return &ix.Documents[i], true
		}
	}
	return nil, false
}

// HasEmbeddings reports whether every document carries embeddings.
func (ix *SearchIndex) HasEmbeddings() bool {
	if len(ix.Documents) == 0 {
		return false
	}
	for i := range ix.Documents {
		if len(ix.Documents[i].Embeddings) == 0 {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a loaded index.
func (ix *SearchIndex) Validate() error {
	if ix == nil {
		return errors.Wrap(internalerr.ErrInvalidIndex, "nil index")
	}
	if ix.Version != Version {
		return errors.Wrapf(internalerr.ErrInvalidIndex, "unsupported version %d", ix.Version)
	}
	if len(ix.Documents) == 0 {
		return errors.Wrap(internalerr.ErrInvalidIndex, "no documents")
	}
	seen := make(map[corpus.ID]struct{}, len(ix.Documents))
	for i := range ix.Documents {
		d := &ix.Documents[i]
		if d.ID == "" {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "document #%d has no id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "duplicate document id %s", d.ID)
		}
		seen[d.ID] = struct{}{}
		if len(d.Keywords) == 0 {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "document %s has no keywords", d.ID)
		}
		for j := 1; j < len(d.Keywords); j++ {
			if d.Keywords[j-1] >= d.Keywords[j] {
				return errors.Wrapf(internalerr.ErrInvalidIndex, "document %s keywords not sorted and unique", d.ID)
			}
		}
		if len(d.Answers) == 0 {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "document %s has no answers", d.ID)
		}
	}
	for kw, w := range ix.IDF {
		if !(w > 0) || math.IsInf(w, 0) {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "keyword %q has weight %v", kw, w)
		}
	}
	return nil
}

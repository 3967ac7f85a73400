package rank

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
)

// Strategy selects how queries are analyzed and scored.
type Strategy string

const (
	// Lexical matches raw tokens: no stopwords, no stemming.
	Lexical Strategy = "lexical"
	// Stemmed removes stopwords and stems before fuzzy matching.
	Stemmed Strategy = "stemmed"
	// Semantic removes stopwords and blends the lexical score with
	// embedding similarity.
	Semantic Strategy = "semantic"
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = Stemmed

// ParseStrategy accepts a strategy name; "" means DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return DefaultStrategy, nil
	case Lexical, Stemmed, Semantic:
		return st, nil
	default:
		return "", errors.Newf("unknown matching strategy %q", s)
	}
}

// Analysis returns the token filters the strategy requires. Indexes must
// be built with the same analysis.
func (s Strategy) Analysis() ingest.Analysis {
	switch s {
	case Lexical:
		return ingest.Analysis{}
	case Semantic:
		return ingest.Analysis{Stopwords: true}
	default:
		return ingest.Analysis{Stopwords: true, Stemming: true}
	}
}

// UsesEmbeddings reports whether the strategy needs an embedder.
func (s Strategy) UsesEmbeddings() bool { return s == Semantic }

func (s Strategy) String() string { return string(s) }

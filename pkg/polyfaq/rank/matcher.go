// Package rank scores FAQ documents against a query and picks the best one.
package rank

import (
	"context"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/pkg/polyfaq/embed"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/similarity"
)

// Options tunes the matcher. Numeric fields are used as given, so start
// from DefaultOptions; only an empty Strategy, a nil Similarity and a nil
// Logger are filled in. Negative weights count as zero.
type Options struct {
	Strategy Strategy
	// FuzzyThreshold is the minimum similarity (0–100) for a query token to
	// count as matching a keyword.
	FuzzyThreshold float64
	Similarity     similarity.Func
	// DefaultIDF weighs keywords missing from the IDF table.
	DefaultIDF float64
	// ActionKeywords get ActionWeight times their IDF weight.
	ActionKeywords []string
	ActionWeight   float64
	// CoverageBonus scales the score by 1 + CoverageBonus·coverage.
	CoverageBonus float64
	// MinScore is the inclusive acceptance threshold for lexical strategies.
	MinScore float64
	// SemanticMinScore is the inclusive acceptance threshold for Semantic.
	SemanticMinScore float64
	LexicalWeight    float64
	SemanticWeight   float64
	// Embedder embeds queries for the Semantic strategy.
	Embedder embed.Embedder
	Logger   *zap.SugaredLogger
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		Strategy:         DefaultStrategy,
		FuzzyThreshold:   75,
		Similarity:       similarity.Ratio,
		DefaultIDF:       0.5,
		ActionWeight:     2.0,
		CoverageBonus:    0.5,
		MinScore:         1.0,
		SemanticMinScore: 0.5,
		LexicalWeight:    0.6,
		SemanticWeight:   0.4,
	}
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Similarity == nil {
		o.Similarity = similarity.Ratio
	}
	for _, v := range []*float64{&o.DefaultIDF, &o.ActionWeight, &o.CoverageBonus, &o.LexicalWeight, &o.SemanticWeight} {
		if *v < 0 {
			*v = 0
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// Query is an analyzed user question.
type Query struct {
	Text     string
	Language lang.Code
	// Tokens are distinct, in first-occurrence order.
	Tokens []string
}

// TokenMatch records which keyword a query token matched.
type TokenMatch struct {
	Token      string
	Keyword    string
	Similarity float64
	Weight     float64
}

// Breakdown explains a document score.
type Breakdown struct {
	// Lexical is the summed weighted similarity of accepted tokens.
	Lexical float64
	// Semantic is the best cosine similarity (Semantic strategy only).
	Semantic float64
	// Coverage counts distinct query tokens that matched a keyword.
	Coverage      int
	CoverageRatio float64
	// Similarity is the mean best similarity over all query tokens, in [0, 1].
	Similarity    float64
	Bonus         float64
	Total         float64
	MatchedTokens []TokenMatch
}

// Match is a scored document.
type Match struct {
	Document  *index.Document
	Score     float64
	Breakdown Breakdown
}

// Matcher ranks the documents of one index. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	ix       *index.SearchIndex
	pipeline *ingest.Pipeline
	opts     Options
	actions  map[string]struct{}
	maxIDF   float64
}

// NewMatcher checks that the index, the pipeline and the strategy agree on
// analysis and returns a matcher.
func NewMatcher(ix *index.SearchIndex, pipeline *ingest.Pipeline, opts Options) (*Matcher, error) {
	if ix == nil || ix.Len() == 0 {
		return nil, errors.Wrap(internalerr.ErrInvalidIndex, "empty index")
	}
	opts = opts.withDefaults()

	want := opts.Strategy.Analysis()
	if ix.Analysis != want {
		return nil, errors.Wrapf(internalerr.ErrIndexMismatch,
			"strategy %s needs %+v, index was built with %+v", opts.Strategy, want, ix.Analysis)
	}
	if pipeline.Analysis() != want {
		return nil, errors.Wrapf(internalerr.ErrIndexMismatch,
			"strategy %s needs %+v, pipeline uses %+v", opts.Strategy, want, pipeline.Analysis())
	}
	if opts.Strategy.UsesEmbeddings() {
		if opts.Embedder == nil {
			return nil, errors.Wrap(internalerr.ErrIndexMismatch, "semantic strategy needs an embedder")
		}
		if !ix.HasEmbeddings() {
			return nil, errors.Wrap(internalerr.ErrIndexMismatch, "index has no embeddings")
		}
		if model := embed.ModelOf(opts.Embedder); model != "" && ix.EmbeddingModel != "" && model != ix.EmbeddingModel {
			return nil, errors.Wrapf(internalerr.ErrIndexMismatch,
				"index embedded with %q, matcher uses %q", ix.EmbeddingModel, model)
		}
	}

	m := &Matcher{
		ix:       ix,
		pipeline: pipeline,
		opts:     opts,
		actions:  make(map[string]struct{}),
		maxIDF:   ix.IDF.Max(),
	}
	if m.maxIDF < opts.DefaultIDF {
		m.maxIDF = opts.DefaultIDF
	}
	// Action keywords go through the same analysis as the index keywords.
	for _, kw := range opts.ActionKeywords {
		for _, code := range ix.Languages {
			for _, tok := range pipeline.Tokenizer().Tokenize(pipeline.Normalizer().Normalize(kw, code), code) {
				m.actions[tok] = struct{}{}
			}
		}
	}
	return m, nil
}

// Strategy returns the configured strategy.
func (m *Matcher) Strategy() Strategy { return m.opts.Strategy }

// Index returns the matcher's index.
func (m *Matcher) Index() *index.SearchIndex { return m.ix }

// Analyze normalizes and tokenizes text for language, dropping repeats.
func (m *Matcher) Analyze(text string, language lang.Code) Query {
	tokens := m.pipeline.Tokens(text, language)
	seen := make(map[string]struct{}, len(tokens))
	distinct := tokens[:0]
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		distinct = append(distinct, tok)
	}
	return Query{Text: text, Language: language, Tokens: distinct}
}

// FindBestMatch returns the highest-scoring document when its score reaches
// the strategy's threshold. Ties keep the earlier document in index order.
// No match is a normal outcome, not an error.
func (m *Matcher) FindBestMatch(ctx context.Context, text string, language lang.Code) (Match, bool) {
	q := m.Analyze(text, language)
	if len(q.Tokens) == 0 {
		m.opts.Logger.Debugw("no query tokens", "language", language)
		return Match{}, false
	}
	qvec := m.queryVector(ctx, q)

	var best Match
	found := false
	for i := range m.ix.Documents {
		d := &m.ix.Documents[i]
		b := m.score(q, d, qvec)
		if !found || b.Total > best.Score {
			best = Match{Document: d, Score: b.Total, Breakdown: b}
			found = true
		}
	}

	threshold := m.Threshold()
	accepted := found && best.Score >= threshold
	m.opts.Logger.Debugw("best match",
		"language", language,
		"tokens", q.Tokens,
		"id", best.Document.ID,
		"score", best.Score,
		"threshold", threshold,
		"accepted", accepted,
	)
	if !accepted {
		return Match{}, false
	}
	return best, true
}

// Rank scores every document and returns the k best (all when k <= 0),
// highest first, ties in index order.
func (m *Matcher) Rank(ctx context.Context, text string, language lang.Code, k int) []Match {
	q := m.Analyze(text, language)
	if len(q.Tokens) == 0 {
		return nil
	}
	qvec := m.queryVector(ctx, q)

	matches := make([]Match, 0, len(m.ix.Documents))
	for i := range m.ix.Documents {
		d := &m.ix.Documents[i]
		b := m.score(q, d, qvec)
		matches = append(matches, Match{Document: d, Score: b.Total, Breakdown: b})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Threshold is the inclusive minimum score for a match.
func (m *Matcher) Threshold() float64 {
	if m.opts.Strategy.UsesEmbeddings() {
		return m.opts.SemanticMinScore
	}
	return m.opts.MinScore
}

// score computes
//
//	lexical = Σ sim/100 · weight(token, keyword)
//	base    = lexical                                  (lexical strategies)
//	base    = wL · lexical/(|q|·maxIDF·action) + wS · cos   (semantic)
//	total   = base · (1 + coverageBonus · coverage/|q|)
func (m *Matcher) score(q Query, d *index.Document, qvec []float32) Breakdown {
	var b Breakdown
	simSum := 0.0
	for _, tok := range q.Tokens {
		kw, sim := m.bestKeyword(tok, d)
		simSum += sim
		if kw == "" || sim < m.opts.FuzzyThreshold {
			continue
		}
		w := m.weight(tok, kw)
		b.Lexical += sim / 100 * w
		b.Coverage++
		b.MatchedTokens = append(b.MatchedTokens, TokenMatch{Token: tok, Keyword: kw, Similarity: sim, Weight: w})
	}

	n := float64(len(q.Tokens))
	b.CoverageRatio = float64(b.Coverage) / n
	b.Similarity = simSum / (100 * n)
	b.Bonus = 1 + m.opts.CoverageBonus*b.CoverageRatio

	base := b.Lexical
	if m.opts.Strategy.UsesEmbeddings() {
		b.Semantic = bestCosine(qvec, d)
		lexNorm := b.Lexical / (n * m.maxIDF * math.Max(1, m.opts.ActionWeight))
		base = m.opts.LexicalWeight*math.Min(1, lexNorm) + m.opts.SemanticWeight*b.Semantic
	}
	b.Total = base * b.Bonus
	return b
}

// bestKeyword finds the keyword most similar to tok. An exact hit wins
// outright; otherwise keywords are scanned in sorted order and the first
// best is kept.
func (m *Matcher) bestKeyword(tok string, d *index.Document) (string, float64) {
	if d.HasKeyword(tok) {
		return tok, 100
	}
	best, bestSim := "", 0.0
	for _, kw := range d.Keywords {
		if sim := m.opts.Similarity(tok, kw); sim > bestSim {
			best, bestSim = kw, sim
		}
	}
	return best, bestSim
}

// weight is idf(keyword) · action(keyword). When the query token is itself
// a known keyword, a fuzzy hit is capped at the token's own weight, so a
// near-duplicate keyword never outscores an exact hit on the token.
func (m *Matcher) weight(tok, kw string) float64 {
	w := m.ix.IDF.Weight(kw, m.opts.DefaultIDF) * m.actionFactor(kw)
	if tok == kw {
		return w
	}
	if idf, known := m.ix.IDF[tok]; known {
		w = math.Min(w, idf*m.actionFactor(tok))
	}
	return w
}

func (m *Matcher) actionFactor(kw string) float64 {
	if _, ok := m.actions[kw]; ok {
		return m.opts.ActionWeight
	}
	return 1
}

// queryVector embeds the query for the semantic strategy. Failures are
// logged and leave the semantic part at zero.
func (m *Matcher) queryVector(ctx context.Context, q Query) []float32 {
	if !m.opts.Strategy.UsesEmbeddings() {
		return nil
	}
	text := m.pipeline.Normalizer().Normalize(q.Text, q.Language)
	vec, err := embed.EmbedOne(ctx, m.opts.Embedder, text)
	if err != nil {
		m.opts.Logger.Warnw("query embedding failed", "error", err)
		return nil
	}
	return vec
}

func bestCosine(qvec []float32, d *index.Document) float64 {
	if qvec == nil {
		return 0
	}
	best := 0.0
	for _, vec := range d.Embeddings {
		if c := embed.Cosine(qvec, vec); c > best {
			best = c
		}
	}
	return best
}

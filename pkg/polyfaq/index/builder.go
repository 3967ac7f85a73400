package index

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/embed"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Builder turns a corpus into a SearchIndex.
type Builder struct {
	pipeline *ingest.Pipeline
	embedder embed.Embedder
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithEmbedder embeds each canonical question so the index can serve the
// semantic strategy.
func WithEmbedder(e embed.Embedder) BuilderOption {
	return func(b *Builder) { b.embedder = e }
}

// WithLogger sets the build logger.
func WithLogger(logger *zap.SugaredLogger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder that analyzes phrases with pipeline. The
// pipeline's analysis is recorded in the index.
func NewBuilder(pipeline *ingest.Pipeline, opts ...BuilderOption) *Builder {
	b := &Builder{
		pipeline: pipeline,
		logger:   zap.NewNop().Sugar(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build analyzes every entry and computes the IDF table. Any failure aborts
// the build; a partial index is never returned.
func (b *Builder) Build(ctx context.Context, c *corpus.Corpus) (*SearchIndex, error) {
	if c == nil || c.Len() == 0 {
		return nil, errors.Wrap(internalerr.ErrInvalidCorpus, "empty corpus")
	}
	builtAt := b.now().UTC()

	docs := make([]Document, 0, c.Len())
	df := make(map[string]int)
	for _, entry := range c.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := b.document(entry)
		if err != nil {
			return nil, err
		}
		for _, kw := range doc.Keywords {
			df[kw]++
		}
		docs = append(docs, doc)
	}

	n := len(docs)
	idf := make(IDFTable, len(df))
	for kw, count := range df {
		idf[kw] = IDF(n, count)
	}

	ix := &SearchIndex{
		Version:   Version,
		BuildID:   ulid.MustNew(ulid.Timestamp(builtAt), ulid.DefaultEntropy()).String(),
		BuiltAt:   builtAt,
		Analysis:  b.pipeline.Analysis(),
		Languages: c.Languages(),
		Documents: docs,
		IDF:       idf,
	}

	if b.embedder != nil {
		if err := b.embed(ctx, ix); err != nil {
			return nil, err
		}
	}

	b.logger.Infow("index built",
		"build_id", ix.BuildID,
		"documents", n,
		"vocabulary", len(idf),
		"languages", ix.Languages,
		"stopwords", ix.Analysis.Stopwords,
		"stemming", ix.Analysis.Stemming,
		"embedding_model", ix.EmbeddingModel,
	)
	return ix, nil
}

// document unions the analyzed tokens of every phrase of every language.
func (b *Builder) document(entry corpus.Entry) (Document, error) {
	set := make(map[string]struct{})
	for _, code := range entry.Languages() {
		for _, phrase := range entry.Phrases(code) {
			for _, tok := range b.pipeline.Tokens(phrase, code) {
				set[tok] = struct{}{}
			}
		}
	}
	if len(set) == 0 {
		return Document{}, errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: no keywords after analysis", entry.ID)
	}

	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return Document{
		ID:        entry.ID,
		Keywords:  keywords,
		Questions: copyTexts(entry.Question),
		Answers:   copyTexts(entry.Answer),
	}, nil
}

// embed attaches one vector per canonical question, in a single batch.
func (b *Builder) embed(ctx context.Context, ix *SearchIndex) error {
	type slot struct {
		doc  int
		code lang.Code
	}
	var slots []slot
	var texts []string
	for i := range ix.Documents {
		d := &ix.Documents[i]
		codes := make([]lang.Code, 0, len(d.Questions))
		for code := range d.Questions {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(x, y int) bool { return codes[x] < codes[y] })
		for _, code := range codes {
			slots = append(slots, slot{doc: i, code: code})
			texts = append(texts, b.pipeline.Normalizer().Normalize(d.Questions[code], code))
		}
	}

	vecs, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return errors.Wrap(err, "embed questions")
	}
	if len(vecs) != len(texts) {
		return errors.Newf("embed questions: got %d vectors for %d texts", len(vecs), len(texts))
	}

	dim := -1
	for k, s := range slots {
		vec := vecs[k]
		if len(vec) == 0 {
			return errors.Newf("embed questions: empty vector for %s/%s", ix.Documents[s.doc].ID, s.code)
		}
		if dim >= 0 && len(vec) != dim {
			return errors.Newf("embed questions: dimension %d differs from %d", len(vec), dim)
		}
		dim = len(vec)
		d := &ix.Documents[s.doc]
		if d.Embeddings == nil {
			d.Embeddings = make(map[lang.Code][]float32)
		}
		d.Embeddings[s.code] = vec
	}
	ix.EmbeddingModel = embed.ModelOf(b.embedder)
	return nil
}

func copyTexts(m map[lang.Code]string) map[lang.Code]string {
	out := make(map[lang.Code]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

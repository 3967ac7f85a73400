package config

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/internal/embedding"
	"github.com/cognicore/polyfaq/pkg/polyfaq/embed"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/intent"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lexicon"
	"github.com/cognicore/polyfaq/pkg/polyfaq/normalize"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
	"github.com/cognicore/polyfaq/pkg/polyfaq/respond"
	"github.com/cognicore/polyfaq/pkg/polyfaq/similarity"
	"github.com/cognicore/polyfaq/pkg/polyfaq/stoplist"
)

// Loader turns a Config into wired components.
type Loader struct {
	Config *Config
	Logger *zap.SugaredLogger
	// Getenv reads the embedding API key; nil means os.Getenv.
	Getenv func(string) string
}

// Components holds everything the engine needs besides the index.
type Components struct {
	Strategy       rank.Strategy
	Normalizer     *normalize.Normalizer
	Pipeline       *ingest.Pipeline
	Classifier     *intent.Classifier
	Resolver       *respond.Resolver
	MatcherOptions rank.Options
	// Embedder is set only for strategies that use embeddings.
	Embedder embed.Embedder

	closers []io.Closer
}

// Close releases the embedding cache connection, if any.
func (c *Components) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Load builds all components. Errors in the language tables are reported
// as internalerr.ErrInvalidConfig.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := l.logger()

	strategy, err := rank.ParseStrategy(cfg.Matcher.Strategy)
	if err != nil {
		return nil, errors.Mark(err, internalerr.ErrInvalidConfig)
	}
	comp := &Components{Strategy: strategy}

	if comp.Normalizer, err = l.normalizer(cfg); err != nil {
		return nil, err
	}
	comp.Pipeline = l.pipeline(cfg, comp.Normalizer, strategy.Analysis())

	var detector intent.Detector
	if cfg.Intent.Detector != "none" {
		detector = intent.NewWhatlangDetector(cfg.Languages)
	}
	comp.Classifier, err = intent.NewClassifier(comp.Normalizer, intent.Options{
		DefaultLanguage:    cfg.DefaultLanguage,
		Languages:          cfg.Languages,
		Greetings:          cfg.Intent.Greetings,
		Priority:           cfg.Intent.Priority,
		ExitPhrases:        cfg.Intent.ExitPhrases,
		ExitCutoff:         cfg.Intent.ExitCutoff,
		ShortInputWords:    cfg.Intent.ShortInputWords,
		HinglishMarkers:    cfg.Intent.Hinglish.Markers,
		HinglishMinMarkers: cfg.Intent.Hinglish.MinMarkers,
		Detector:           detector,
		Logger:             log.Named("intent"),
	})
	if err != nil {
		return nil, err
	}

	comp.Resolver = respond.NewResolver(respond.Options{
		DefaultLanguage: cfg.DefaultLanguage,
		Fallbacks:       cfg.Responses.Fallbacks,
		Messages:        cfg.Responses.Messages,
	})

	scorer, err := similarity.ByName(cfg.Matcher.Scorer)
	if err != nil {
		return nil, errors.Mark(err, internalerr.ErrInvalidConfig)
	}
	comp.MatcherOptions = rank.Options{
		Strategy:         strategy,
		FuzzyThreshold:   cfg.Matcher.FuzzyThreshold,
		Similarity:       scorer,
		DefaultIDF:       cfg.Matcher.DefaultIDF,
		ActionKeywords:   cfg.Matcher.ActionKeywords,
		ActionWeight:     cfg.Matcher.ActionWeight,
		CoverageBonus:    cfg.Matcher.CoverageBonus,
		MinScore:         cfg.Matcher.MinScore,
		SemanticMinScore: cfg.Matcher.SemanticMinScore,
		LexicalWeight:    cfg.Matcher.LexicalWeight,
		SemanticWeight:   cfg.Matcher.SemanticWeight,
		Logger:           log.Named("rank"),
	}

	if strategy.UsesEmbeddings() {
		e, closer, err := l.embedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		comp.Embedder = e
		comp.MatcherOptions.Embedder = e
		if closer != nil {
			comp.closers = append(comp.closers, closer)
		}
	}

	log.Debugw("components loaded",
		"strategy", strategy,
		"languages", cfg.Languages,
		"typos", len(cfg.Typos),
		"embedder", embed.ModelOf(comp.Embedder))
	return comp, nil
}

func (l *Loader) logger() *zap.SugaredLogger {
	if l.Logger != nil {
		return l.Logger
	}
	return zap.NewNop().Sugar()
}

func (l *Loader) normalizer(cfg *Config) (*normalize.Normalizer, error) {
	shared, err := lexicon.FromGroups(cfg.Typos)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "typos"), internalerr.ErrInvalidConfig)
	}
	perLang := make(map[lang.Code]*lexicon.Lexicon, len(cfg.LanguageTypos))
	for code, groups := range cfg.LanguageTypos {
		lex, err := lexicon.FromGroups(groups)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "typos for %s", code), internalerr.ErrInvalidConfig)
		}
		perLang[code] = lex
	}
	n, err := normalize.New(normalize.Options{Typos: shared, LanguageTypos: perLang})
	if err != nil {
		return nil, errors.Mark(err, internalerr.ErrInvalidConfig)
	}
	return n, nil
}

func (l *Loader) pipeline(cfg *Config, n *normalize.Normalizer, analysis ingest.Analysis) *ingest.Pipeline {
	// Phrase variants are matched against normalized words.
	phrases := make([]ingest.Phrase, 0, len(cfg.Phrases))
	for _, p := range cfg.Phrases {
		variants := make([]string, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, n.Normalize(v, ""))
		}
		phrases = append(phrases, ingest.Phrase{Canonical: p.Canonical, Variants: variants})
	}

	tokenizer := ingest.NewTokenizer(ingest.TokenizerOptions{
		Analysis:       analysis,
		Stopwords:      cfg.Tokenizer.Stopwords,
		MinTokenLength: cfg.Tokenizer.MinTokenLength,
		ShortTokens:    cfg.Tokenizer.ShortTokens,
	})
	return ingest.NewPipeline(n, ingest.NewPhraseParser(phrases), tokenizer)
}

// Pipeline builds the analysis pipeline for a strategy. Index builds use it
// so that the index records the analysis the matcher will expect.
func (l *Loader) Pipeline(strategy rank.Strategy) (*ingest.Pipeline, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	n, err := l.normalizer(cfg)
	if err != nil {
		return nil, err
	}
	return l.pipeline(cfg, n, strategy.Analysis()), nil
}

// Stoplist returns the configured stopwords of a language.
func (l *Loader) Stoplist(code lang.Code) *stoplist.Manager {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	return stoplist.NewManager(cfg.Tokenizer.Stopwords[code])
}

// Thresholds returns the stopword suggestion thresholds.
func (c *Config) Thresholds() stoplist.Thresholds {
	return stoplist.Thresholds{DFPercent: c.Index.SuggestDFPercent, MinDF: c.Index.SuggestMinDF}
}

// Embedder builds the configured embedder wrapped in its cache. The closer
// is non-nil when the cache holds a connection.
func (l *Loader) Embedder(ctx context.Context) (embed.Embedder, io.Closer, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	return l.embedder(ctx, cfg)
}

func (l *Loader) embedder(ctx context.Context, cfg *Config) (embed.Embedder, io.Closer, error) {
	e := cfg.Embedding
	var base embed.Embedder
	switch e.Provider {
	case ProviderHash:
		base = embed.HashEmbedder{Dimension: e.Dimensions}
	case ProviderOpenAI:
		getenv := l.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		timeout := e.Timeout
		if timeout <= 0 {
			timeout = embedding.DefaultTimeout
		}
		base = &embedding.Client{
			BaseURL:    e.BaseURL,
			APIKey:     getenv(e.APIKeyEnv),
			ModelName:  e.Model,
			Dimensions: e.Dimensions,
			HTTPClient: &http.Client{Timeout: timeout},
		}
	default:
		return nil, nil, errors.Wrapf(internalerr.ErrInvalidConfig, "embedding provider %q", e.Provider)
	}

	log := l.logger().Named("embed")
	switch e.Cache.Backend {
	case CacheLRU:
		cache, err := embed.NewLRUCache(e.Cache.LRUSize)
		if err != nil {
			return nil, nil, err
		}
		return embed.NewCached(base, cache, embed.WithLogger(log)), nil, nil
	case CacheRedis:
		cache, err := embed.NewRedisCache(ctx, e.Cache.Redis)
		if err != nil {
			return nil, nil, errors.Wrap(err, "embedding cache")
		}
		return embed.NewCached(base, cache, embed.WithLogger(log)), cache, nil
	default:
		return base, nil, nil
	}
}

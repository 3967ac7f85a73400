// Package polyfaq answers free-text questions from a fixed multilingual FAQ.
//
// An Engine classifies each message (greeting, exit or question, and its
// language), matches questions against a prebuilt index and picks the
// reply text in the user's language.
package polyfaq

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/pkg/polyfaq/config"
	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/intent"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/metrics"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
	"github.com/cognicore/polyfaq/pkg/polyfaq/respond"
)

// Engine is the query interface. It is safe for concurrent use.
type Engine struct {
	matcher    *rank.Matcher
	classifier *intent.Classifier
	resolver   *respond.Resolver
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	closer     io.Closer
	// unregister drops the index collector registered by Open.
	unregister func()
	now        func() time.Time
}

// Options wires an Engine from already-built components.
type Options struct {
	Index      *index.SearchIndex
	Pipeline   *ingest.Pipeline
	Classifier *intent.Classifier
	Resolver   *respond.Resolver
	Matcher    rank.Options
	// Metrics may be nil.
	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
	// Closer is closed by Engine.Close.
	Closer io.Closer
}

// New creates an Engine. The matcher checks that the index was built with
// the analysis its strategy needs.
func New(opts Options) (*Engine, error) {
	if opts.Classifier == nil || opts.Resolver == nil || opts.Pipeline == nil {
		return nil, errors.New("polyfaq: pipeline, classifier and resolver are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Matcher.Logger == nil {
		opts.Matcher.Logger = opts.Logger.Named("rank")
	}
	m, err := rank.NewMatcher(opts.Index, opts.Pipeline, opts.Matcher)
	if err != nil {
		return nil, err
	}
	return &Engine{
		matcher:    m,
		classifier: opts.Classifier,
		resolver:   opts.Resolver,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		closer:     opts.Closer,
		now:        time.Now,
	}, nil
}

// Setup describes an Engine built from configuration.
type Setup struct {
	// Config nil means config.Default().
	Config *config.Config
	Index  *index.SearchIndex
	Logger *zap.SugaredLogger
	// Registerer, when set, receives the query and index metrics. Only one
	// open engine per registry can export index metrics; Close releases them.
	Registerer prometheus.Registerer
}

// Open builds every component from configuration and wraps the index.
func Open(ctx context.Context, s Setup) (*Engine, error) {
	loader := &config.Loader{Config: s.Config, Logger: s.Logger}
	comp, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	e, err := New(Options{
		Index:      s.Index,
		Pipeline:   comp.Pipeline,
		Classifier: comp.Classifier,
		Resolver:   comp.Resolver,
		Matcher:    comp.MatcherOptions,
		Logger:     s.Logger,
		Closer:     comp,
	})
	if err != nil {
		comp.Close()
		return nil, err
	}
	if s.Registerer == nil {
		return e, nil
	}

	if e.metrics, err = metrics.New(s.Registerer); err != nil {
		e.Close()
		return nil, err
	}
	c := metrics.NewIndexCollector(e.Index())
	if err := c.Register(s.Registerer); err != nil {
		e.Close()
		return nil, err
	}
	e.unregister = func() { c.Unregister(s.Registerer) }
	return e, nil
}

// Reply is the engine's answer to one message.
type Reply struct {
	// ID identifies the exchange in logs.
	ID       ulid.ULID
	Text     string
	Language lang.Code
	Intent   intent.Intent
	Source   intent.Source
	// Matched is true when Text is an FAQ answer.
	Matched   bool
	MatchedID corpus.ID
	Score     float64
}

// Ask answers one message. The reply text is never empty; failures inside
// detection or embedding degrade to defaults instead of surfacing.
func (e *Engine) Ask(ctx context.Context, text string) Reply {
	start := e.now()
	reply := Reply{ID: ulid.MustNew(ulid.Timestamp(start), ulid.DefaultEntropy())}
	outcome := metrics.OutcomeCanned

	res := intent.Result{Language: e.classifier.DefaultLanguage(), Intent: intent.Question, Source: intent.SourceEmpty}
	if strings.TrimSpace(text) != "" {
		res = e.classifier.Classify(text)
	}
	reply.Language, reply.Intent, reply.Source = res.Language, res.Intent, res.Source

	switch {
	case res.Source == intent.SourceEmpty:
		reply.Text = e.resolver.EmptyPrompt(res.Language)
		reply.Intent = ""
		outcome = metrics.OutcomeEmpty
	case res.Intent == intent.Greeting:
		reply.Text = e.resolver.Greeting(res.Language)
	case res.Intent == intent.Exit:
		reply.Text = e.resolver.Farewell(res.Language)
	default:
		if m, ok := e.matcher.FindBestMatch(ctx, text, res.Language); ok {
			reply.Text = e.resolver.Resolve(m.Document, res.Language)
			reply.Matched = true
			reply.MatchedID = m.Document.ID
			reply.Score = m.Score
			outcome = metrics.OutcomeMatched
		} else {
			reply.Text = e.resolver.NoMatch(res.Language)
			outcome = metrics.OutcomeNoMatch
		}
	}

	elapsed := e.now().Sub(start)
	e.metrics.ObserveQuery(string(reply.Intent), string(reply.Language), outcome, reply.Score, elapsed)
	e.logger.Debugw("query answered",
		"id", reply.ID,
		"language", reply.Language,
		"intent", reply.Intent,
		"source", reply.Source,
		"outcome", outcome,
		"matched_id", reply.MatchedID,
		"score", reply.Score,
		"elapsed", elapsed,
	)
	return reply
}

// Explain classifies text and returns the k best-scoring documents with
// their score breakdowns, whether or not they pass the threshold.
func (e *Engine) Explain(ctx context.Context, text string, k int) (intent.Result, []rank.Match) {
	res := e.classifier.Classify(text)
	return res, e.matcher.Rank(ctx, text, res.Language, k)
}

// Threshold is the minimum score a match needs.
func (e *Engine) Threshold() float64 { return e.matcher.Threshold() }

// Index returns the served index.
func (e *Engine) Index() *index.SearchIndex { return e.matcher.Index() }

// Close releases resources held by the engine's components.
func (e *Engine) Close() error {
	if e.unregister != nil {
		e.unregister()
		e.unregister = nil
	}
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

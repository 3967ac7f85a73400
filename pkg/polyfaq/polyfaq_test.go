package polyfaq

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cognicore/polyfaq/pkg/polyfaq/config"
	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/intent"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
)

const testCorpus = "testdata/faq.json"

func buildIndex(t *testing.T, cfg *config.Config) *index.SearchIndex {
	t.Helper()
	c, err := corpus.Load(testCorpus, cfg.RequiredLanguages)
	require.NoError(t, err)

	strategy, err := rank.ParseStrategy(cfg.Matcher.Strategy)
	require.NoError(t, err)
	loader := &config.Loader{Config: cfg}
	pipeline, err := loader.Pipeline(strategy)
	require.NoError(t, err)

	var opts []index.BuilderOption
	if strategy.UsesEmbeddings() {
		e, _, err := loader.Embedder(context.Background())
		require.NoError(t, err)
		opts = append(opts, index.WithEmbedder(e))
	}
	ix, err := index.NewBuilder(pipeline, opts...).Build(context.Background(), c)
	require.NoError(t, err)
	return ix
}

func openEngine(t *testing.T, cfg *config.Config, reg prometheus.Registerer) *Engine {
	t.Helper()
	e, err := Open(context.Background(), Setup{
		Config:     cfg,
		Index:      buildIndex(t, cfg),
		Logger:     zaptest.NewLogger(t).Sugar(),
		Registerer: reg,
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// offlineConfig disables the statistical detector so that the language of
// Latin-script input is decided by rules alone.
func offlineConfig() *config.Config {
	cfg := config.Default()
	cfg.Intent.Detector = "none"
	return cfg
}

func TestAskTypoRecoversEntry(t *testing.T) {
	e := openEngine(t, config.Default(), nil)

	reply := e.Ask(context.Background(), "how do I downlaod status")
	require.True(t, reply.Matched, "reply %+v", reply)
	assert.Equal(t, corpus.ID("save-status"), reply.MatchedID)
	assert.Equal(t, intent.Question, reply.Intent)
	assert.GreaterOrEqual(t, reply.Score, e.Threshold())
	assert.NotEmpty(t, reply.Text)
}

func TestAskGreetingInHindi(t *testing.T) {
	cfg := config.Default()
	e := openEngine(t, cfg, nil)

	reply := e.Ask(context.Background(), "नमस्ते")
	assert.Equal(t, lang.Hindi, reply.Language)
	assert.Equal(t, intent.Greeting, reply.Intent)
	assert.Equal(t, intent.SourceGreeting, reply.Source)
	assert.Equal(t, cfg.Responses.Greeting[lang.Hindi], reply.Text)
	assert.False(t, reply.Matched)
}

func TestAskGibberish(t *testing.T) {
	cfg := config.Default()
	e := openEngine(t, cfg, nil)

	reply := e.Ask(context.Background(), "asdkqwe zxcqwe")
	assert.False(t, reply.Matched)
	assert.Equal(t, intent.Question, reply.Intent)
	assert.Equal(t, cfg.Responses.NoMatch[reply.Language], reply.Text)
}

func TestAskEmpty(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := openEngine(t, config.Default(), reg)

	for _, in := range []string{"", "   \t", "???"} {
		reply := e.Ask(context.Background(), in)
		assert.Equal(t, "Please enter a question.", reply.Text, "input %q", in)
		assert.False(t, reply.Matched)
		assert.Equal(t, intent.SourceEmpty, reply.Source)
	}

	expected := `
# HELP polyfaq_match_outcomes_total Query outcomes: matched, no_match, empty or canned.
# TYPE polyfaq_match_outcomes_total counter
polyfaq_match_outcomes_total{outcome="empty"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "polyfaq_match_outcomes_total"))
}

func TestAskExit(t *testing.T) {
	cfg := config.Default()
	e := openEngine(t, cfg, nil)

	for _, in := range []string{"exit", "QUIT", "bye!"} {
		reply := e.Ask(context.Background(), in)
		assert.Equal(t, intent.Exit, reply.Intent, "input %q", in)
		assert.Equal(t, "Goodbye!", reply.Text)
	}
	reply := e.Ask(context.Background(), "sampai jumpa")
	assert.Equal(t, lang.Indonesian, reply.Language)
	assert.Equal(t, cfg.Responses.Farewell[lang.Indonesian], reply.Text)
}

func TestAskHindiQuestion(t *testing.T) {
	cfg := config.Default()
	e := openEngine(t, cfg, nil)

	c, err := corpus.Load(testCorpus, cfg.RequiredLanguages)
	require.NoError(t, err)
	entry, ok := c.Get("save-status")
	require.True(t, ok)

	reply := e.Ask(context.Background(), "स्टेटस कैसे सेव करें?")
	require.True(t, reply.Matched)
	assert.Equal(t, lang.Hindi, reply.Language)
	assert.Equal(t, intent.SourceScript, reply.Source)
	assert.Equal(t, corpus.ID("save-status"), reply.MatchedID)
	assert.Equal(t, entry.Answer[lang.Hindi], reply.Text)
}

func TestAskHinglishFallsBackToEnglishAnswer(t *testing.T) {
	cfg := offlineConfig()
	e := openEngine(t, cfg, nil)

	c, err := corpus.Load(testCorpus, cfg.RequiredLanguages)
	require.NoError(t, err)
	entry, _ := c.Get("save-status")

	reply := e.Ask(context.Background(), "status kaise download kare bhai")
	assert.Equal(t, lang.Hinglish, reply.Language)
	assert.Equal(t, intent.SourceHinglish, reply.Source)
	require.True(t, reply.Matched)
	assert.Equal(t, entry.Answer[lang.English], reply.Text)
}

func TestAskRoundTripCanonicalQuestions(t *testing.T) {
	cfg := offlineConfig()
	e := openEngine(t, cfg, nil)

	c, err := corpus.Load(testCorpus, cfg.RequiredLanguages)
	require.NoError(t, err)
	for _, entry := range c.Entries() {
		q := entry.Question[lang.English]
		reply := e.Ask(context.Background(), q)
		require.True(t, reply.Matched, "question %q", q)
		assert.Equal(t, entry.ID, reply.MatchedID, "question %q", q)

		_, ranked := e.Explain(context.Background(), q, 0)
		require.NotEmpty(t, ranked)
		assert.Equal(t, entry.ID, ranked[0].Document.ID)
		assert.Equal(t, reply.Score, ranked[0].Score)
		assert.Equal(t, 1.0, ranked[0].Breakdown.CoverageRatio)
	}
}

func TestAskDeterministic(t *testing.T) {
	e := openEngine(t, config.Default(), nil)
	first := e.Ask(context.Background(), "hide my status from contacts")
	for i := 0; i < 5; i++ {
		again := e.Ask(context.Background(), "hide my status from contacts")
		assert.Equal(t, first.MatchedID, again.MatchedID)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Text, again.Text)
	}
}

func TestAskConcurrent(t *testing.T) {
	e := openEngine(t, offlineConfig(), prometheus.NewRegistry())
	queries := []string{"how do I downlaod status", "नमस्ते", "", "mute status", "asdkqwe zxcqwe"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, q := range queries {
				reply := e.Ask(context.Background(), q)
				assert.NotEmpty(t, reply.Text)
			}
		}()
	}
	wg.Wait()
}

func TestAskSemanticStrategy(t *testing.T) {
	cfg := offlineConfig()
	cfg.Matcher.Strategy = string(rank.Semantic)
	e := openEngine(t, cfg, nil)

	reply := e.Ask(context.Background(), "How long does a status stay visible?")
	require.True(t, reply.Matched)
	assert.Equal(t, corpus.ID("status-duration"), reply.MatchedID)
	assert.Equal(t, cfg.Matcher.SemanticMinScore, e.Threshold())
}

func TestOpenRejectsMismatchedIndex(t *testing.T) {
	stemmed := config.Default()
	ix := buildIndex(t, stemmed)

	lexical := config.Default()
	lexical.Matcher.Strategy = string(rank.Lexical)
	_, err := Open(context.Background(), Setup{Config: lexical, Index: ix})
	assert.Error(t, err)
}

func TestOpenRetriesOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	ix := buildIndex(t, config.Default())
	log := zaptest.NewLogger(t).Sugar()

	lexical := offlineConfig()
	lexical.Matcher.Strategy = string(rank.Lexical)
	_, err := Open(context.Background(), Setup{Config: lexical, Index: ix, Logger: log, Registerer: reg})
	require.Error(t, err)

	var e *Engine
	require.NotPanics(t, func() {
		e, err = Open(context.Background(), Setup{Config: offlineConfig(), Index: ix, Logger: log, Registerer: reg})
	})
	require.NoError(t, err)
	e.Ask(context.Background(), "how do I downlaod status")

	_, err = Open(context.Background(), Setup{Config: offlineConfig(), Index: ix, Logger: log, Registerer: reg})
	assert.Error(t, err, "index metrics are held by the open engine")

	require.NoError(t, e.Close())
	again, err := Open(context.Background(), Setup{Config: offlineConfig(), Index: ix, Logger: log, Registerer: reg})
	require.NoError(t, err)
	defer again.Close()
	again.Ask(context.Background(), "how do I downlaod status")

	expected := `
# HELP polyfaq_match_outcomes_total Query outcomes: matched, no_match, empty or canned.
# TYPE polyfaq_match_outcomes_total counter
polyfaq_match_outcomes_total{outcome="matched"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "polyfaq_match_outcomes_total"))
}

func TestOpenHonorsZeroMinScore(t *testing.T) {
	cfg := offlineConfig()
	cfg.Matcher.MinScore = 0
	e := openEngine(t, cfg, nil)
	assert.Equal(t, 0.0, e.Threshold())
}

func TestAskReplyIDsAreUnique(t *testing.T) {
	e := openEngine(t, offlineConfig(), nil)
	a := e.Ask(context.Background(), "mute status")
	b := e.Ask(context.Background(), "mute status")
	assert.NotEqual(t, a.ID, b.ID)
}

// Package metrics exposes query and index metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
)

// Match outcomes.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeEmpty   = "empty"
	OutcomeCanned  = "canned"
)

// Metrics records per-query measurements. A nil *Metrics is a no-op.
type Metrics struct {
	queries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	scores   prometheus.Histogram
	duration prometheus.Histogram
}

// New creates the query metrics and registers them with reg. Metrics that
// reg already holds from an earlier call are reused, so engines reopened on
// the same registry keep counting where the previous one stopped.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polyfaq_queries_total",
			Help: "Queries by detected intent and language.",
		}, []string{"intent", "language"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polyfaq_match_outcomes_total",
			Help: "Query outcomes: matched, no_match, empty or canned.",
		}, []string{"outcome"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "polyfaq_match_score",
			Help:    "Score of the best document for answered questions.",
			Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 3, 5, 8, 13},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "polyfaq_query_duration_seconds",
			Help:    "Time to answer a query.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	var err error
	if m.queries, err = register(reg, m.queries); err != nil {
		return nil, err
	}
	if m.outcomes, err = register(reg, m.outcomes); err != nil {
		return nil, err
	}
	if m.scores, err = register(reg, m.scores); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, or returns the equal collector reg already has.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, errors.Wrap(err, "register metrics")
}

// ObserveQuery records one answered query.
func (m *Metrics) ObserveQuery(intent, language, outcome string, score float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	if intent != "" {
		m.queries.WithLabelValues(intent, language).Inc()
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	if outcome == OutcomeMatched {
		m.scores.Observe(score)
	}
	m.duration.Observe(elapsed.Seconds())
}

var (
	indexDocumentsDesc = prometheus.NewDesc(
		"polyfaq_index_documents",
		"Documents in the loaded index",
		nil, nil,
	)
	indexVocabularyDesc = prometheus.NewDesc(
		"polyfaq_index_vocabulary",
		"Distinct keywords in the loaded index",
		nil, nil,
	)
	indexInfoDesc = prometheus.NewDesc(
		"polyfaq_index_info",
		"Build information of the loaded index",
		[]string{"build_id", "stopwords", "stemming", "embedding_model"},
		nil,
	)
)

// IndexCollector reports the shape of a loaded index on each scrape.
type IndexCollector struct {
	ix *index.SearchIndex
}

// NewIndexCollector creates a collector for ix.
func NewIndexCollector(ix *index.SearchIndex) *IndexCollector {
	return &IndexCollector{ix: ix}
}

// Register adds the collector to reg. A registry reports one index at a
// time; unregister the previous collector before registering another.
func (c *IndexCollector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c); err != nil {
		return errors.Wrap(err, "register index metrics")
	}
	return nil
}

// Unregister removes the collector from reg.
func (c *IndexCollector) Unregister(reg prometheus.Registerer) {
	reg.Unregister(c)
}

// Describe sends the metric descriptors to the channel.
func (c *IndexCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- indexDocumentsDesc
	ch <- indexVocabularyDesc
	ch <- indexInfoDesc
}

// Collect emits the index gauges.
func (c *IndexCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(indexDocumentsDesc, prometheus.GaugeValue, float64(c.ix.Len()))
	ch <- prometheus.MustNewConstMetric(indexVocabularyDesc, prometheus.GaugeValue, float64(len(c.ix.IDF)))
	ch <- prometheus.MustNewConstMetric(indexInfoDesc, prometheus.GaugeValue, 1,
		c.ix.BuildID,
		boolLabel(c.ix.Analysis.Stopwords),
		boolLabel(c.ix.Analysis.Stemming),
		c.ix.EmbeddingModel,
	)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

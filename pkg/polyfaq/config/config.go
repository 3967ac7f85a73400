// Package config holds the engine configuration: the language tables, the
// matcher tuning and the embedding backend. Default returns a complete
// configuration; YAML files overlay it.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/polyfaq/internal/logger"
	"github.com/cognicore/polyfaq/pkg/polyfaq/embed"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lexicon"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
	"github.com/cognicore/polyfaq/pkg/polyfaq/respond"
	"github.com/cognicore/polyfaq/pkg/polyfaq/similarity"
)

// Config is the full engine configuration.
type Config struct {
	DefaultLanguage lang.Code   `yaml:"default_language"`
	Languages       []lang.Code `yaml:"languages"`
	// RequiredLanguages must be present in every corpus entry.
	RequiredLanguages []lang.Code `yaml:"required_languages"`

	Typos         []lexicon.Group               `yaml:"typos"`
	LanguageTypos map[lang.Code][]lexicon.Group `yaml:"language_typos"`
	Phrases       []ingest.Phrase               `yaml:"phrases"`

	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Intent    IntentConfig    `yaml:"intent"`
	Matcher   MatcherConfig   `yaml:"matcher"`
	Responses ResponseConfig  `yaml:"responses"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Logging   logger.Config   `yaml:"logging"`
}

// TokenizerConfig configures token filtering.
type TokenizerConfig struct {
	Stopwords      map[lang.Code][]string `yaml:"stopwords"`
	MinTokenLength int                    `yaml:"min_token_length"`
	ShortTokens    []string               `yaml:"short_tokens"`
}

// IntentConfig configures greeting, exit and language handling.
type IntentConfig struct {
	Greetings       map[lang.Code][]string `yaml:"greetings"`
	Priority        []lang.Code            `yaml:"priority"`
	ExitPhrases     map[lang.Code][]string `yaml:"exit_phrases"`
	ExitCutoff      float64                `yaml:"exit_cutoff"`
	ShortInputWords int                    `yaml:"short_input_words"`
	Hinglish        HinglishConfig         `yaml:"hinglish"`
	// Detector is "whatlang" or "none".
	Detector string `yaml:"detector"`
}

// HinglishConfig configures romanized Hindi recognition.
type HinglishConfig struct {
	Markers    []string `yaml:"markers"`
	MinMarkers int      `yaml:"min_markers"`
}

// MatcherConfig tunes scoring. See rank.Options for the meaning of each
// field.
type MatcherConfig struct {
	Strategy         string   `yaml:"strategy"`
	Scorer           string   `yaml:"scorer"`
	FuzzyThreshold   float64  `yaml:"fuzzy_threshold"`
	DefaultIDF       float64  `yaml:"default_idf"`
	ActionKeywords   []string `yaml:"action_keywords"`
	ActionWeight     float64  `yaml:"action_weight"`
	CoverageBonus    float64  `yaml:"coverage_bonus"`
	MinScore         float64  `yaml:"min_score"`
	SemanticMinScore float64  `yaml:"semantic_min_score"`
	LexicalWeight    float64  `yaml:"lexical_weight"`
	SemanticWeight   float64  `yaml:"semantic_weight"`
}

// ResponseConfig holds canned replies and the answer fallback chains.
type ResponseConfig struct {
	Fallbacks        map[lang.Code][]lang.Code `yaml:"fallbacks"`
	respond.Messages `yaml:",inline"`
}

// Embedding providers.
const (
	ProviderNone   = "none"
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// Embedding cache backends.
const (
	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

// EmbeddingConfig selects the embedding model used by the semantic strategy.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv  string        `yaml:"api_key_env"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
	Cache      CacheConfig   `yaml:"cache"`
}

// CacheConfig selects the embedding cache.
type CacheConfig struct {
	Backend string            `yaml:"backend"`
	LRUSize int               `yaml:"lru_size"`
	Redis   embed.RedisConfig `yaml:"redis"`
}

// IndexConfig configures build-time reporting.
type IndexConfig struct {
	// SuggestDFPercent flags keywords found in more than this share of
	// documents as stopword candidates.
	SuggestDFPercent float64 `yaml:"suggest_df_percent"`
	SuggestMinDF     int64   `yaml:"suggest_min_df"`
}

// Default returns the built-in configuration for the WhatsApp status FAQ
// in English, Hindi, Indonesian and Hinglish.
func Default() *Config {
	return &Config{
		DefaultLanguage:   lang.English,
		Languages:         []lang.Code{lang.English, lang.Hindi, lang.Indonesian, lang.Hinglish},
		RequiredLanguages: []lang.Code{lang.English, lang.Hindi, lang.Indonesian},
		Typos: []lexicon.Group{
			{Canonical: "hello", Variants: []string{"helo"}},
			{Canonical: "whatsapp", Variants: []string{"watsap", "whastapp", "wa"}},
			{Canonical: "download", Variants: []string{"downlaod", "downlod"}},
			{Canonical: "status", Variants: []string{"statuss", "statu"}},
			{Canonical: "save", Variants: []string{"savee"}},
			{Canonical: "नमस्ते", Variants: []string{"हेलो"}},
			{Canonical: "व्हाट्सएप", Variants: []string{"वाट्सप"}},
			{Canonical: "डाउनलोड", Variants: []string{"डाउनलोड्ड"}},
			{Canonical: "hai", Variants: []string{"halo"}},
			{Canonical: "unduh", Variants: []string{"undh"}},
		},
		Phrases: []ingest.Phrase{
			{Canonical: "whatsapp_web", Variants: []string{"whatsapp web"}},
			{Canonical: "last_seen", Variants: []string{"last seen"}},
		},
		Tokenizer: TokenizerConfig{
			Stopwords: map[lang.Code][]string{
				lang.English:    {"a", "an", "the", "is", "in", "it", "i", "to", "for", "of", "how", "do", "can", "what", "why", "my"},
				lang.Hindi:      {"एक", "में", "है", "की", "मैं", "यह", "से", "क्या", "कैसे", "क्यों", "मेरा", "मेरे"},
				lang.Indonesian: {"di", "ke", "dari", "dan", "ini", "itu", "saya", "untuk", "bagaimana", "apa", "kenapa", "bisa"},
			},
			MinTokenLength: ingest.DefaultMinTokenLength,
			ShortTokens:    []string{"hi", "ok"},
		},
		Intent: IntentConfig{
			Greetings: map[lang.Code][]string{
				lang.English:    {"hi", "hello", "hey", "good morning", "good evening"},
				lang.Hindi:      {"नमस्ते", "हाय", "हेलो", "शुभ प्रभात", "शुभ संध्या"},
				lang.Indonesian: {"hai", "halo", "selamat pagi", "selamat malam"},
			},
			Priority: []lang.Code{lang.Hindi, lang.Indonesian, lang.English},
			ExitPhrases: map[lang.Code][]string{
				lang.English:    {"exit", "quit", "bye", "goodbye"},
				lang.Hindi:      {"अलविदा"},
				lang.Indonesian: {"keluar", "sampai jumpa"},
			},
			ExitCutoff:      90,
			ShortInputWords: 3,
			Hinglish: HinglishConfig{
				// "hai" is left out: it is also an Indonesian greeting.
				Markers:    []string{"kaise", "kya", "kare", "karu", "karo", "karein", "kyun", "mera", "mere", "mujhe", "nahi", "hota", "bhai", "yaar", "apna", "dekhe", "kaha"},
				MinMarkers: 2,
			},
			Detector: "whatlang",
		},
		Matcher: MatcherConfig{
			Strategy:         string(rank.DefaultStrategy),
			Scorer:           similarity.ScorerRatio,
			FuzzyThreshold:   75,
			DefaultIDF:       0.5,
			ActionKeywords:   []string{"download", "save", "delete", "hide", "share", "mute", "reply", "forward", "डाउनलोड", "सेव", "हटाएं", "unduh", "simpan", "hapus", "sembunyikan", "bagikan"},
			ActionWeight:     2.0,
			CoverageBonus:    0.5,
			MinScore:         1.0,
			SemanticMinScore: 0.5,
			LexicalWeight:    0.6,
			SemanticWeight:   0.4,
		},
		Responses: ResponseConfig{
			Fallbacks: map[lang.Code][]lang.Code{
				lang.Hinglish: {lang.English},
			},
			Messages: respond.Messages{
				Greeting: map[lang.Code]string{
					lang.English:    "Hello! How can I assist you with WhatsApp statuses?",
					lang.Hindi:      "नमस्ते! मैं व्हाट्सएप स्टेटस के बारे में कैसे मदद कर सकता हूँ?",
					lang.Indonesian: "Hai! Bagaimana saya bisa membantu dengan status WhatsApp?",
					lang.Hinglish:   "Namaste! Main WhatsApp status ke baare mein kaise madad kar sakta hoon?",
				},
				Farewell: map[lang.Code]string{
					lang.English:    "Goodbye!",
					lang.Hindi:      "अलविदा!",
					lang.Indonesian: "Sampai jumpa!",
					lang.Hinglish:   "Alvida!",
				},
				NoMatch: map[lang.Code]string{
					lang.English:    "I'm not sure how to answer that. Try rephrasing your question.",
					lang.Hindi:      "मुझे इसका उत्तर नहीं पता। कृपया अपना प्रश्न दूसरे शब्दों में पूछें।",
					lang.Indonesian: "Saya tidak yakin bagaimana menjawabnya. Coba ulangi pertanyaan Anda.",
					lang.Hinglish:   "Mujhe iska jawab nahi pata. Apna sawaal dobara likhiye.",
				},
				EmptyPrompt: map[lang.Code]string{
					lang.English: "Please enter a question.",
				},
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderHash,
			Dimensions: embed.DefaultHashDimension,
			APIKeyEnv:  "POLYFAQ_EMBEDDING_API_KEY",
			Timeout:    15 * time.Second,
			Cache: CacheConfig{
				Backend: CacheLRU,
				LRUSize: embed.DefaultLRUSize,
				Redis: embed.RedisConfig{
					Addr:   "localhost:6379",
					Prefix: "polyfaq:emb:",
					TTL:    24 * time.Hour,
				},
			},
		},
		Index: IndexConfig{
			SuggestDFPercent: 50,
			SuggestMinDF:     2,
		},
		Logging: logger.Config{Level: "info", Format: logger.FormatConsole},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Lists in
// the YAML replace the defaults; maps are merged key by key. Unknown keys
// are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(internalerr.ErrInvalidConfig, "parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-references.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, errors.Newf(format, args...))
	}

	if !c.DefaultLanguage.Valid() {
		fail("default_language %q is not a valid code", c.DefaultLanguage)
	}
	if len(c.Languages) == 0 {
		fail("languages must not be empty")
	}
	for _, code := range c.Languages {
		if !code.Valid() {
			fail("language %q is not a valid code", code)
		}
	}
	if !lang.Contains(c.Languages, c.DefaultLanguage) {
		fail("default_language %q is not in languages", c.DefaultLanguage)
	}
	for _, code := range c.RequiredLanguages {
		if !lang.Contains(c.Languages, code) {
			fail("required language %q is not in languages", code)
		}
	}
	for code, chain := range c.Responses.Fallbacks {
		for _, to := range chain {
			if !lang.Contains(c.Languages, to) {
				fail("fallback %s -> %s: unknown language", code, to)
			}
		}
	}

	if _, err := lexicon.FromGroups(c.Typos); err != nil {
		fail("typos: %v", err)
	}
	for code, groups := range c.LanguageTypos {
		if _, err := lexicon.FromGroups(groups); err != nil {
			fail("language_typos[%s]: %v", code, err)
		}
	}

	if c.Tokenizer.MinTokenLength < 0 {
		fail("tokenizer.min_token_length must not be negative")
	}
	if c.Intent.ShortInputWords < 0 {
		fail("intent.short_input_words must not be negative")
	}
	if c.Intent.Hinglish.MinMarkers < 0 {
		fail("intent.hinglish.min_markers must not be negative")
	}
	switch c.Intent.Detector {
	case "", "whatlang", "none":
	default:
		fail("intent.detector %q: want whatlang or none", c.Intent.Detector)
	}
	checkPercent(fail, "intent.exit_cutoff", c.Intent.ExitCutoff)

	m := c.Matcher
	strategy, err := rank.ParseStrategy(m.Strategy)
	if err != nil {
		fail("matcher.strategy: %v", err)
	}
	if _, err := similarity.ByName(m.Scorer); err != nil {
		fail("matcher.scorer: %v", err)
	}
	checkPercent(fail, "matcher.fuzzy_threshold", m.FuzzyThreshold)
	// Zero is a valid setting for all of these and is used as given.
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"matcher.action_weight", m.ActionWeight},
		{"matcher.coverage_bonus", m.CoverageBonus},
		{"matcher.min_score", m.MinScore},
		{"matcher.semantic_min_score", m.SemanticMinScore},
		{"matcher.lexical_weight", m.LexicalWeight},
		{"matcher.semantic_weight", m.SemanticWeight},
	} {
		if f.value < 0 {
			fail("%s must not be negative", f.name)
		}
	}
	if m.DefaultIDF <= 0 {
		fail("matcher.default_idf must be positive")
	}
	if strategy.UsesEmbeddings() && m.LexicalWeight+m.SemanticWeight <= 0 {
		fail("matcher: lexical_weight and semantic_weight are both zero")
	}

	e := c.Embedding
	switch e.Provider {
	case "", ProviderNone, ProviderHash:
	case ProviderOpenAI:
		if e.BaseURL == "" || e.Model == "" {
			fail("embedding: provider openai needs base_url and model")
		}
	default:
		fail("embedding.provider %q: want none, hash or openai", e.Provider)
	}
	if strategy.UsesEmbeddings() && (e.Provider == "" || e.Provider == ProviderNone) {
		fail("matcher.strategy %s needs an embedding provider", strategy)
	}
	switch e.Cache.Backend {
	case "", CacheNone, CacheLRU:
	case CacheRedis:
		if e.Cache.Redis.Addr == "" {
			fail("embedding.cache.redis.addr is required")
		}
	default:
		fail("embedding.cache.backend %q: want none, lru or redis", e.Cache.Backend)
	}

	if c.Index.SuggestDFPercent < 0 || c.Index.SuggestDFPercent > 100 {
		fail("index.suggest_df_percent must be within [0, 100]")
	}

	if len(errs) > 0 {
		return errors.Mark(errors.Wrap(errors.Join(errs...), "invalid configuration"), internalerr.ErrInvalidConfig)
	}
	return nil
}

func checkPercent(fail func(string, ...interface{}), name string, v float64) {
	if v < 0 || v > 100 {
		fail("%s must be within [0, 100], got %g", name, v)
	}
}

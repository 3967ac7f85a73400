package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/stoplist"
)

// DefaultMinTokenLength drops single-rune tokens such as "i" or "a".
const DefaultMinTokenLength = 2

// Analysis selects the optional token filters. Index building and query
// matching must use the same Analysis.
type Analysis struct {
	Stopwords bool `json:"stopwords" yaml:"stopwords"`
	Stemming  bool `json:"stemming" yaml:"stemming"`
}

// TokenizerOptions configures a Tokenizer.
type TokenizerOptions struct {
	Analysis Analysis
	// Stopwords per language; languages without an entry are not filtered.
	Stopwords map[lang.Code][]string
	// Stemmers per language; nil means DefaultStemmers().
	Stemmers map[lang.Code]Stemmer
	// MinTokenLength in runes; zero means DefaultMinTokenLength.
	MinTokenLength int
	// ShortTokens survive the length filter.
	ShortTokens []string
}

// Tokenizer splits normalized text into tokens, applying the configured
// stemming and stopword filtering. It is immutable after construction.
type Tokenizer struct {
	analysis  Analysis
	stopwords map[lang.Code]*stoplist.Manager
	stemmers  map[lang.Code]Stemmer
	minLen    int
	short     map[string]struct{}
}

// NewTokenizer creates a tokenizer from options
func NewTokenizer(opts TokenizerOptions) *Tokenizer {
	t := &Tokenizer{
		analysis:  opts.Analysis,
		stopwords: make(map[lang.Code]*stoplist.Manager, len(opts.Stopwords)),
		stemmers:  opts.Stemmers,
		minLen:    opts.MinTokenLength,
		short:     make(map[string]struct{}, len(opts.ShortTokens)),
	}
	for code, words := range opts.Stopwords {
		t.stopwords[code] = stoplist.NewManager(words)
	}
	if t.stemmers == nil {
		t.stemmers = DefaultStemmers()
	}
	if t.minLen <= 0 {
		t.minLen = DefaultMinTokenLength
	}
	for _, s := range opts.ShortTokens {
		t.short[strings.ToLower(s)] = struct{}{}
	}
	return t
}

// Analysis reports the filters this tokenizer applies.
func (t *Tokenizer) Analysis() Analysis {
	return t.analysis
}

// Tokenize splits already-normalized text on whitespace and filters the
// tokens for language. Order is preserved; duplicates are kept.
func (t *Tokenizer) Tokenize(normalized string, language lang.Code) []string {
	return t.Filter(strings.Fields(normalized), language)
}

// Filter applies the token filters to pre-split words.
func (t *Tokenizer) Filter(words []string, language lang.Code) []string {
	tokens := make([]string, 0, len(words))
	for _, f := range words {
		if tok := t.processToken(f, language); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// processToken applies the length filter, stemming and stopword filtering.
func (t *Tokenizer) processToken(token string, language lang.Code) string {
	if !t.longEnough(token) {
		return ""
	}

	word := token
	if t.analysis.Stemming {
		if s, ok := t.stemmers[language]; ok {
			word = s.Stem(token)
		}
	}

	// A stem that no longer looks like the listed stopword must still go.
	if t.analysis.Stopwords && (t.IsStopword(token, language) || t.IsStopword(word, language)) {
		return ""
	}
	if word == "" {
		return ""
	}
	return word
}

func (t *Tokenizer) longEnough(token string) bool {
	if utf8.RuneCountInString(token) >= t.minLen {
		return true
	}
	_, ok := t.short[token]
	return ok
}

// IsStopword reports whether token is a stopword for language.
func (t *Tokenizer) IsStopword(token string, language lang.Code) bool {
	return t.stopwords[language].IsStop(token)
}

// Stopwords returns the stoplist of a language, or nil.
func (t *Tokenizer) Stopwords(language lang.Code) *stoplist.Manager {
	return t.stopwords[language]
}

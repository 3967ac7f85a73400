// Package intent resolves the language of a user message and whether it is
// a greeting, a farewell or a question.
package intent

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/normalize"
	"github.com/cognicore/polyfaq/pkg/polyfaq/similarity"
)

// Intent is the coarse purpose of a message.
type Intent string

const (
	Greeting Intent = "greeting"
	Exit     Intent = "exit"
	Question Intent = "question"
)

// Source records which rule decided the language.
type Source string

const (
	SourceEmpty    Source = "empty"
	SourceGreeting Source = "greeting_set"
	SourceExit     Source = "exit_set"
	SourceScript   Source = "script"
	SourceDetector Source = "detector"
	SourceHinglish Source = "hinglish_markers"
	SourceFallback Source = "fallback"
)

// Result is the outcome of classification.
type Result struct {
	Language lang.Code
	Intent   Intent
	Source   Source
}

// Options configures a Classifier.
type Options struct {
	DefaultLanguage lang.Code
	// Languages the engine can answer in; detector results outside this
	// list fall back to DefaultLanguage.
	Languages []lang.Code
	Greetings map[lang.Code][]string
	// Priority orders greeting and exit lookups; unlisted languages follow
	// in sorted order. Default: hi, id, en.
	Priority    []lang.Code
	ExitPhrases map[lang.Code][]string
	// ExitCutoff is the minimum fuzzy ratio (0–100) for an exit phrase.
	ExitCutoff float64
	// ShortInputWords bounds the inputs checked against greeting sets.
	ShortInputWords    int
	HinglishMarkers    []string
	HinglishMinMarkers int
	Detector           Detector
	Logger             *zap.SugaredLogger
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	normalizer *normalize.Normalizer
	parser     *ingest.PhraseParser
	def        lang.Code
	languages  []lang.Code
	priority   []lang.Code
	greetings  map[lang.Code]map[string]struct{}
	exits      map[lang.Code][]string
	exitCutoff float64
	shortInput int
	markers    map[string]struct{}
	minMarkers int
	detector   Detector
	logger     *zap.SugaredLogger
}

// NewClassifier normalizes the phrase tables with normalizer so that they
// line up with normalized input.
func NewClassifier(normalizer *normalize.Normalizer, opts Options) (*Classifier, error) {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = lang.English
	}
	if !opts.DefaultLanguage.Valid() {
		return nil, errors.Wrapf(internalerr.ErrInvalidConfig, "default language %q", opts.DefaultLanguage)
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []lang.Code{opts.DefaultLanguage}
	}
	if opts.Priority == nil {
		opts.Priority = []lang.Code{lang.Hindi, lang.Indonesian, lang.English}
	}
	if opts.ExitCutoff == 0 {
		opts.ExitCutoff = 90
	}
	if opts.ShortInputWords == 0 {
		opts.ShortInputWords = 3
	}
	if opts.HinglishMinMarkers == 0 {
		opts.HinglishMinMarkers = 2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	c := &Classifier{
		normalizer: normalizer,
		def:        opts.DefaultLanguage,
		languages:  opts.Languages,
		greetings:  make(map[lang.Code]map[string]struct{}),
		exits:      make(map[lang.Code][]string),
		exitCutoff: opts.ExitCutoff,
		shortInput: opts.ShortInputWords,
		markers:    make(map[string]struct{}),
		minMarkers: opts.HinglishMinMarkers,
		detector:   opts.Detector,
		logger:     opts.Logger,
	}

	var phrases []string
	for code, list := range opts.Greetings {
		set := make(map[string]struct{}, len(list))
		for _, g := range list {
			if n := c.normalize(g); n != "" {
				set[n] = struct{}{}
				phrases = append(phrases, n)
			}
		}
		c.greetings[code] = set
	}
	for code, list := range opts.ExitPhrases {
		seen := make(map[string]struct{}, len(list))
		for _, e := range list {
			n := c.normalize(e)
			if _, dup := seen[n]; n == "" || dup {
				continue
			}
			seen[n] = struct{}{}
			c.exits[code] = append(c.exits[code], n)
			phrases = append(phrases, n)
		}
		sort.Strings(c.exits[code])
	}
	c.parser = ingest.NewPhraseParser(ingest.PhrasesFrom(phrases))

	for _, m := range opts.HinglishMarkers {
		if n := c.normalize(m); n != "" {
			c.markers[n] = struct{}{}
		}
	}

	c.priority = orderLanguages(opts.Priority, opts.Greetings, opts.ExitPhrases)
	return c, nil
}

func (c *Classifier) normalize(s string) string {
	return c.normalizer.Normalize(s, c.def)
}

// orderLanguages returns priority followed by every other language of the
// phrase tables, sorted.
func orderLanguages(priority []lang.Code, tables ...map[lang.Code][]string) []lang.Code {
	seen := make(map[lang.Code]struct{})
	out := make([]lang.Code, 0, len(priority))
	for _, code := range priority {
		if _, dup := seen[code]; !dup {
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	var rest []lang.Code
	for _, table := range tables {
		for code := range table {
			if _, dup := seen[code]; !dup {
				seen[code] = struct{}{}
				rest = append(rest, code)
			}
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// DefaultLanguage returns the fallback language.
func (c *Classifier) DefaultLanguage() lang.Code { return c.def }

// Classify decides language and intent. It never fails: detection errors
// resolve to the default language.
//
// Order: greeting sets for short input, exit phrases, Devanagari script,
// the detector, then the Hinglish marker rule.
func (c *Classifier) Classify(raw string) Result {
	normalized := c.normalize(raw)
	if normalized == "" {
		return Result{Language: c.def, Intent: Question, Source: SourceEmpty}
	}
	fields := strings.Fields(normalized)
	words := c.parser.Parse(fields)

	if len(fields) <= c.shortInput {
		if code, ok := c.greetingLanguage(words); ok {
			return Result{Language: code, Intent: Greeting, Source: SourceGreeting}
		}
	}

	if code, ok := c.exitLanguage(normalized, words, len(fields) <= c.shortInput); ok {
		return Result{Language: code, Intent: Exit, Source: SourceExit}
	}

	code, source := c.detectLanguage(raw, normalized)
	if code == c.def && c.isHinglish(normalized, words) {
		code, source = lang.Hinglish, SourceHinglish
	}
	return Result{Language: code, Intent: Question, Source: source}
}

// greetingLanguage returns the first language, in priority order, whose
// greeting set contains any of the words.
func (c *Classifier) greetingLanguage(words []string) (lang.Code, bool) {
	for _, code := range c.priority {
		set := c.greetings[code]
		for _, w := range words {
			if _, ok := set[w]; ok {
				return code, true
			}
		}
	}
	return "", false
}

// exitLanguage matches the whole input, or for short input every word,
// against the exit phrases of each language.
func (c *Classifier) exitLanguage(normalized string, words []string, short bool) (lang.Code, bool) {
	for _, code := range c.priority {
		phrases := c.exits[code]
		if len(phrases) == 0 {
			continue
		}
		if c.isExitPhrase(normalized, phrases) {
			return code, true
		}
		if short && c.allExitPhrases(words, phrases) {
			return code, true
		}
	}
	return "", false
}

func (c *Classifier) allExitPhrases(words []string, phrases []string) bool {
	for _, w := range words {
		if !c.isExitPhrase(w, phrases) {
			return false
		}
	}
	return len(words) > 0
}

func (c *Classifier) isExitPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if s == p || similarity.Ratio(s, p) >= c.exitCutoff {
			return true
		}
	}
	return false
}

func (c *Classifier) detectLanguage(raw, normalized string) (lang.Code, Source) {
	if lang.Contains(c.languages, lang.Hindi) && devanagariDominant(normalized) {
		return lang.Hindi, SourceScript
	}
	if c.detector == nil {
		return c.def, SourceFallback
	}
	code, err := c.detector.Detect(raw)
	if err != nil {
		c.logger.Debugw("language detection failed, using default", "error", err, "default", c.def)
		return c.def, SourceFallback
	}
	if !lang.Contains(c.languages, code) {
		c.logger.Debugw("detected unsupported language, using default", "detected", code, "default", c.def)
		return c.def, SourceFallback
	}
	return code, SourceDetector
}

// isHinglish reports romanized Hindi: Latin script with enough marker words.
func (c *Classifier) isHinglish(normalized string, words []string) bool {
	if len(c.markers) == 0 || !lang.Contains(c.languages, lang.Hinglish) {
		return false
	}
	if devanagariShare(normalized) > 0 {
		return false
	}
	n := 0
	for _, w := range words {
		if _, ok := c.markers[w]; ok {
			n++
		}
	}
	return n >= c.minMarkers
}

func devanagariDominant(s string) bool {
	return devanagariShare(s) > 0.5
}

// devanagariShare is the fraction of letters and marks in s that are
// Devanagari.
func devanagariShare(s string) float64 {
	var letters, deva int
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Devanagari, r) {
			deva++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(deva) / float64(letters)
}

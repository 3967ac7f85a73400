// Package normalize canonicalizes free text before tokenization: case,
// punctuation, whitespace and known typos.
package normalize

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lexicon"
)

// RuneRange is an inclusive code point range kept verbatim by the
// normalizer, so that combining signs of a script are never stripped.
type RuneRange struct {
	Lo rune `yaml:"lo"`
	Hi rune `yaml:"hi"`
}

// Devanagari covers Hindi letters, vowel signs and virama.
var Devanagari = RuneRange{Lo: 0x0900, Hi: 0x097F}

// DefaultBreakRunes are sentence punctuation marks that separate words.
const DefaultBreakRunes = "!?।॥"

// Options configures a Normalizer.
type Options struct {
	// Typos applies to every language.
	Typos *lexicon.Lexicon
	// LanguageTypos are consulted before Typos for their language.
	LanguageTypos map[lang.Code]*lexicon.Lexicon
	// Preserve lists code point ranges that survive punctuation stripping.
	// Nil means Devanagari only.
	Preserve []RuneRange
	// BreakRunes become spaces instead of being dropped. Empty means
	// DefaultBreakRunes.
	BreakRunes string
}

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	shared    *lexicon.Lexicon
	perLang   map[lang.Code]*lexicon.Lexicon
	preserve  []RuneRange
	breakRune map[rune]struct{}
}

// New builds a Normalizer and checks that typo correction is idempotent:
// every canonical form must be a single already-normalized token.
func New(opts Options) (*Normalizer, error) {
	n := &Normalizer{
		shared:    opts.Typos,
		perLang:   make(map[lang.Code]*lexicon.Lexicon, len(opts.LanguageTypos)),
		preserve:  opts.Preserve,
		breakRune: make(map[rune]struct{}),
	}
	if n.shared == nil {
		n.shared = lexicon.New()
	}
	if n.preserve == nil {
		n.preserve = []RuneRange{Devanagari}
	}
	breaks := opts.BreakRunes
	if breaks == "" {
		breaks = DefaultBreakRunes
	}
	for _, r := range breaks {
		n.breakRune[r] = struct{}{}
	}

	if err := n.checkCanonicals(n.shared); err != nil {
		return nil, err
	}
	for code, lex := range opts.LanguageTypos {
		merged, err := lexicon.Merge(n.shared, lex)
		if err != nil {
			return nil, errors.Wrapf(err, "typos for %s", code)
		}
		if err := n.checkCanonicals(merged); err != nil {
			return nil, errors.Wrapf(err, "typos for %s", code)
		}
		n.perLang[code] = merged
	}
	return n, nil
}

// Must is New for package-level defaults and tests.
func Must(opts Options) *Normalizer {
	n, err := New(opts)
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize lower-cases text, strips punctuation, collapses whitespace and
// corrects known typos for the given language ("" for none).
// Normalize(Normalize(x, l), l) == Normalize(x, l) for all x.
func (n *Normalizer) Normalize(text string, language lang.Code) string {
	cleaned := n.clean(text)
	if cleaned == "" {
		return ""
	}

	lex := n.lexiconFor(language)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = lex.Normalize(w)
	}
	return strings.Join(words, " ")
}

// Clean applies only the character-level steps, without typo correction.
func (n *Normalizer) Clean(text string) string {
	return n.clean(text)
}

func (n *Normalizer) clean(text string) string {
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case n.isBreak(r):
			b.WriteRune(' ')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '_', n.preserved(r):
			b.WriteRune(r)
		}
	}

	// Removing punctuation can leave decomposed sequences behind.
	composed := norm.NFC.String(b.String())
	return strings.Join(strings.Fields(composed), " ")
}

func (n *Normalizer) lexiconFor(language lang.Code) *lexicon.Lexicon {
	if lex, ok := n.perLang[language]; ok {
		return lex
	}
	return n.shared
}

func (n *Normalizer) isBreak(r rune) bool {
	_, ok := n.breakRune[r]
	return ok
}

func (n *Normalizer) preserved(r rune) bool {
	for _, rr := range n.preserve {
		if r >= rr.Lo && r <= rr.Hi {
			return true
		}
	}
	return false
}

func (n *Normalizer) checkCanonicals(lex *lexicon.Lexicon) error {
	for _, g := range lex.Groups() {
		if got := n.clean(g.Canonical); got != g.Canonical || strings.ContainsRune(got, ' ') {
			return errors.Newf("typo canonical %q is not a single normalized token", g.Canonical)
		}
	}
	return nil
}

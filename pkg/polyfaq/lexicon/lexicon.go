package lexicon

import (
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Lexicon stores known misspellings and slang forms of a word:
// - Typos: "downlaod" → "download", "helo" → "hello"
// - Slang: "wa" → "whatsapp"
// - Script variants: "वाट्सप" → "व्हाट्सएप"
//
// Lookups are exact, per token. A canonical form is always a fixed point, so
// correcting already-corrected text changes nothing.
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	// Example: "download" -> ["download", "downlaod", "downlod"]
	groups map[string][]string

	// variant -> canonical
	// Example: "downlaod" -> "download"
	reverseIndex map[string]string
}

// Group is one canonical form with its known variants.
type Group struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// FromGroups builds a lexicon from groups and validates it.
func FromGroups(groups []Group) (*Lexicon, error) {
	lex := New()
	for _, g := range groups {
		lex.AddGroup(g.Canonical, g.Variants)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

// LoadFromYAML loads typo groups from a YAML file.
//
// Expected format:
//
//	typos:
//	  - canonical: download
//	    variants: [downlaod, downlod]
//	  - canonical: whatsapp
//	    variants: [watsap, whastapp, wa]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read lexicon %s", path)
	}

	var config struct {
		Typos []Group `yaml:"typos"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "parse lexicon %s", path)
	}

	return FromGroups(config.Typos)
}

// AddGroup adds a canonical form and its variants.
// The canonical form is always included as the first entry in the variants list.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddGroup(canonical string, variants []string) {
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	if canonical == "" {
		return
	}

	if oldVariants, exists := l.groups[canonical]; exists {
		for _, oldV := range oldVariants {
			delete(l.reverseIndex, oldV)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := make(map[string]bool)
	normalized = append(normalized, canonical)
	seen[canonical] = true

	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.groups[canonical] = normalized
	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Validate rejects tables where a word belongs to two groups or where one
// group's canonical form is another group's variant. Either would make
// correction order-dependent or non-idempotent.
func (l *Lexicon) Validate() error {
	for _, canonical := range l.canonicals() {
		for _, v := range l.groups[canonical] {
			if got := l.reverseIndex[v]; got != canonical {
				return errors.Newf("lexicon: %q is listed under both %q and %q", v, canonical, got)
			}
		}
	}
	return nil
}

// Normalize returns the canonical form of a token.
// If the token is not in the lexicon, returns the token itself.
//
// Examples:
//   - Normalize("downlaod") -> "download"
//   - Normalize("unknown") -> "unknown"
func (l *Lexicon) Normalize(token string) string {
	if canonical, ok := l.reverseIndex[token]; ok {
		return canonical
	}
	return token
}

// Lookup reports the canonical form of token if the lexicon knows it.
func (l *Lexicon) Lookup(token string) (string, bool) {
	canonical, ok := l.reverseIndex[token]
	return canonical, ok
}

// Variants returns all known variants of a token (including the canonical form).
// If the token is not in the lexicon, returns a slice containing only the token itself.
func (l *Lexicon) Variants(token string) []string {
	token = strings.ToLower(token)
	if canonical, ok := l.reverseIndex[token]; ok {
		return l.groups[canonical]
	}
	return []string{token}
}

// Groups returns all groups sorted by canonical form.
func (l *Lexicon) Groups() []Group {
	out := make([]Group, 0, len(l.groups))
	for _, canonical := range l.canonicals() {
		out = append(out, Group{
			Canonical: canonical,
			Variants:  append([]string(nil), l.groups[canonical][1:]...),
		})
	}
	return out
}

// Merge returns a new lexicon holding the groups of all given lexicons.
// Later lexicons win on conflicting canonical forms; the result is validated.
func Merge(lexicons ...*Lexicon) (*Lexicon, error) {
	out := New()
	for _, lex := range lexicons {
		if lex == nil {
			continue
		}
		for _, g := range lex.Groups() {
			out.AddGroup(g.Canonical, g.Variants)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, variants := range l.groups {
		total += len(variants) - 1
	}
	return Stats{Groups: len(l.groups), Variants: total}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Groups   int // Number of canonical forms
	Variants int // Number of variants, not counting canonical forms
}

func (l *Lexicon) canonicals() []string {
	keys := make([]string, 0, len(l.groups))
	for k := range l.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package ingest

import "strings"

// Phrase is a multi-word expression recognized as one token, with optional
// variants that map to it.
type Phrase struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// PhraseParser merges known multi-word phrases into single tokens
type PhraseParser struct {
	dict   map[string]string // phrase → canonical form
	maxLen int
}

// NewPhraseParser creates a parser for the given phrases. Keys are
// lower-cased and whitespace-collapsed.
func NewPhraseParser(phrases []Phrase) *PhraseParser {
	p := &PhraseParser{dict: make(map[string]string), maxLen: 1}
	for _, e := range phrases {
		canonical := phraseKey(e.Canonical)
		if canonical == "" {
			continue
		}
		p.add(canonical, canonical)
		for _, v := range e.Variants {
			if key := phraseKey(v); key != "" {
				p.add(key, canonical)
			}
		}
	}
	return p
}

// PhrasesFrom wraps plain strings as variant-free phrases.
func PhrasesFrom(items ...[]string) []Phrase {
	var out []Phrase
	for _, list := range items {
		for _, s := range list {
			out = append(out, Phrase{Canonical: s})
		}
	}
	return out
}

func (p *PhraseParser) add(key, canonical string) {
	p.dict[key] = canonical
	if l := len(strings.Fields(key)); l > p.maxLen {
		p.maxLen = l
	}
}

// Parse applies greedy longest-match to recognize phrases. Tokens that are
// not part of a phrase pass through; a single token with a mapping is
// replaced by its canonical form. A nil parser returns tokens unchanged.
func (p *PhraseParser) Parse(tokens []string) []string {
	if p == nil || len(p.dict) == 0 {
		return tokens
	}
	result := make([]string, 0, len(tokens))
	i := 0

	for i < len(tokens) {
		matched := ""
		matchLen := 1

		maxPhrase := p.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 2; n-- {
			if canonical, ok := p.dict[strings.Join(tokens[i:i+n], " ")]; ok {
				matched = canonical
				matchLen = n
				break
			}
		}

		if matched != "" {
			result = append(result, matched)
			i += matchLen
			continue
		}
		if canonical, ok := p.dict[tokens[i]]; ok {
			result = append(result, canonical)
		} else {
			result = append(result, tokens[i])
		}
		i++
	}

	return result
}

// Len returns the number of recognized surface forms.
func (p *PhraseParser) Len() int {
	if p == nil {
		return 0
	}
	return len(p.dict)
}

func phraseKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

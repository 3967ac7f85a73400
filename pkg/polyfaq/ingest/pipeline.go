package ingest

import (
	"strings"

	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/normalize"
)

// Pipeline orchestrates the text analysis flow used for both corpus entries
// and queries:
// text → normalization → phrase recognition → token filtering
type Pipeline struct {
	normalizer *normalize.Normalizer
	parser     *PhraseParser
	tokenizer  *Tokenizer
}

// NewPipeline creates an analysis pipeline. parser may be nil.
func NewPipeline(normalizer *normalize.Normalizer, parser *PhraseParser, tokenizer *Tokenizer) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		parser:     parser,
		tokenizer:  tokenizer,
	}
}

// Processed is text after analysis.
type Processed struct {
	Normalized string
	Tokens     []string
}

// Process runs text through the full pipeline for a language.
func (p *Pipeline) Process(text string, language lang.Code) Processed {
	normalized := p.normalizer.Normalize(text, language)
	words := p.parser.Parse(strings.Fields(normalized))
	return Processed{
		Normalized: normalized,
		Tokens:     p.tokenizer.Filter(words, language),
	}
}

// Tokens is Process(text, language).Tokens.
func (p *Pipeline) Tokens(text string, language lang.Code) []string {
	return p.Process(text, language).Tokens
}

// Normalizer returns the pipeline's normalizer.
func (p *Pipeline) Normalizer() *normalize.Normalizer { return p.normalizer }

// Tokenizer returns the pipeline's tokenizer.
func (p *Pipeline) Tokenizer() *Tokenizer { return p.tokenizer }

// Analysis reports the tokenizer's filters.
func (p *Pipeline) Analysis() Analysis { return p.tokenizer.Analysis() }

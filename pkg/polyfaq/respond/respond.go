// Package respond turns match outcomes into reply text in the user's
// language.
package respond

import (
	"strings"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Last-resort replies, used when no configured message applies.
const (
	DefaultGreeting    = "Hello! How can I assist you with WhatsApp statuses?"
	DefaultFarewell    = "Goodbye!"
	DefaultNoMatch     = "I'm not sure how to answer that. Try rephrasing your question."
	DefaultEmptyPrompt = "Please enter a question."
)

// Messages holds canned replies per language.
type Messages struct {
	Greeting    map[lang.Code]string `yaml:"greeting"`
	Farewell    map[lang.Code]string `yaml:"farewell"`
	NoMatch     map[lang.Code]string `yaml:"no_match"`
	EmptyPrompt map[lang.Code]string `yaml:"empty_prompt"`
}

// Options configures a Resolver.
type Options struct {
	DefaultLanguage lang.Code
	// Fallbacks lists languages to try, in order, when a text is missing in
	// the requested language, e.g. hinglish → [en].
	Fallbacks map[lang.Code][]lang.Code
	Messages  Messages
}

// Resolver picks reply text. It never returns an empty string.
type Resolver struct {
	def       lang.Code
	fallbacks map[lang.Code][]lang.Code
	messages  Messages
}

// NewResolver creates a resolver.
func NewResolver(opts Options) *Resolver {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = lang.English
	}
	return &Resolver{
		def:       opts.DefaultLanguage,
		fallbacks: opts.Fallbacks,
		messages:  opts.Messages,
	}
}

// Resolve returns the answer of doc in language, following the fallback
// chain and then the default language. Without any answer it returns the
// no-match message.
func (r *Resolver) Resolve(doc *index.Document, language lang.Code) string {
	if doc != nil {
		if text, ok := r.pick(doc.Answers, language); ok {
			return text
		}
	}
	return r.NoMatch(language)
}

// Greeting returns the greeting reply.
func (r *Resolver) Greeting(language lang.Code) string {
	return r.message(r.messages.Greeting, language, DefaultGreeting)
}

// Farewell returns the exit reply.
func (r *Resolver) Farewell(language lang.Code) string {
	return r.message(r.messages.Farewell, language, DefaultFarewell)
}

// NoMatch returns the reply for questions without a confident match.
func (r *Resolver) NoMatch(language lang.Code) string {
	return r.message(r.messages.NoMatch, language, DefaultNoMatch)
}

// EmptyPrompt returns the reply for empty input.
func (r *Resolver) EmptyPrompt(language lang.Code) string {
	return r.message(r.messages.EmptyPrompt, language, DefaultEmptyPrompt)
}

func (r *Resolver) message(texts map[lang.Code]string, language lang.Code, fixed string) string {
	if text, ok := r.pick(texts, language); ok {
		return text
	}
	return fixed
}

// Chain returns the languages tried for language, without repeats.
func (r *Resolver) Chain(language lang.Code) []lang.Code {
	chain := make([]lang.Code, 0, 2+len(r.fallbacks[language]))
	add := func(c lang.Code) {
		if c != "" && !lang.Contains(chain, c) {
			chain = append(chain, c)
		}
	}
	add(language)
	for _, c := range r.fallbacks[language] {
		add(c)
	}
	add(r.def)
	return chain
}

func (r *Resolver) pick(texts map[lang.Code]string, language lang.Code) (string, bool) {
	for _, c := range r.Chain(language) {
		if text := strings.TrimSpace(texts[c]); text != "" {
			return text, true
		}
	}
	return "", false
}

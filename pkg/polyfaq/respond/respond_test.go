package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

func testResolver() *Resolver {
	return NewResolver(Options{
		DefaultLanguage: lang.English,
		Fallbacks:       map[lang.Code][]lang.Code{lang.Hinglish: {lang.Hindi, lang.English}},
		Messages: Messages{
			Greeting: map[lang.Code]string{
				lang.English: "Hello! How can I assist you with WhatsApp statuses?",
				lang.Hindi:   "नमस्ते! मैं व्हाट्सएप स्टेटस के बारे में कैसे मदद कर सकता हूँ?",
			},
			NoMatch: map[lang.Code]string{lang.Indonesian: "Maaf, saya tidak mengerti."},
		},
	})
}

func TestResolveAnswer(t *testing.T) {
	r := testResolver()
	doc := &index.Document{
		ID:      "save",
		Answers: map[lang.Code]string{lang.English: "Tap Save.", lang.Indonesian: "Ketuk Simpan."},
	}

	assert.Equal(t, "Ketuk Simpan.", r.Resolve(doc, lang.Indonesian))
	assert.Equal(t, "Tap Save.", r.Resolve(doc, lang.English))
	// Missing Hindi answer falls back to the default language.
	assert.Equal(t, "Tap Save.", r.Resolve(doc, lang.Hindi))
	// Hinglish tries Hindi, then English.
	assert.Equal(t, "Tap Save.", r.Resolve(doc, lang.Hinglish))
}

func TestResolveFallbackChainOrder(t *testing.T) {
	r := testResolver()
	doc := &index.Document{Answers: map[lang.Code]string{lang.Hindi: "सेव दबाएं।", lang.English: "Tap Save."}}
	assert.Equal(t, "सेव दबाएं।", r.Resolve(doc, lang.Hinglish))
	assert.Equal(t, []lang.Code{lang.Hinglish, lang.Hindi, lang.English}, r.Chain(lang.Hinglish))
	assert.Equal(t, []lang.Code{lang.English}, r.Chain(lang.English))
}

func TestResolveNeverEmpty(t *testing.T) {
	r := testResolver()

	assert.Equal(t, DefaultNoMatch, r.Resolve(nil, lang.English))
	assert.Equal(t, DefaultNoMatch, r.Resolve(&index.Document{Answers: map[lang.Code]string{lang.English: "  "}}, lang.English))
	assert.Equal(t, "Maaf, saya tidak mengerti.", r.Resolve(nil, lang.Indonesian))

	empty := NewResolver(Options{})
	for _, code := range []lang.Code{"", lang.English, "xx"} {
		assert.NotEmpty(t, empty.Greeting(code))
		assert.NotEmpty(t, empty.Farewell(code))
		assert.NotEmpty(t, empty.NoMatch(code))
		assert.NotEmpty(t, empty.EmptyPrompt(code))
		assert.NotEmpty(t, empty.Resolve(nil, code))
	}
}

func TestCannedMessages(t *testing.T) {
	r := testResolver()

	assert.Equal(t, "नमस्ते! मैं व्हाट्सएप स्टेटस के बारे में कैसे मदद कर सकता हूँ?", r.Greeting(lang.Hindi))
	assert.Equal(t, "Hello! How can I assist you with WhatsApp statuses?", r.Greeting(lang.Indonesian))
	assert.Equal(t, DefaultFarewell, r.Farewell(lang.Hindi))
	assert.Equal(t, DefaultEmptyPrompt, r.EmptyPrompt(lang.English))
	assert.Equal(t, DefaultNoMatch, r.NoMatch(lang.English))
}

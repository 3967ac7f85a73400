package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lexicon"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	typos, err := lexicon.FromGroups([]lexicon.Group{
		{Canonical: "hello", Variants: []string{"helo"}},
		{Canonical: "whatsapp", Variants: []string{"watsap", "whastapp", "wa"}},
		{Canonical: "download", Variants: []string{"downlaod", "downlod"}},
		{Canonical: "नमस्ते", Variants: []string{"हेलो"}},
	})
	require.NoError(t, err)
	indonesian, err := lexicon.FromGroups([]lexicon.Group{
		{Canonical: "hai", Variants: []string{"halo"}},
	})
	require.NoError(t, err)

	n, err := New(Options{
		Typos:         typos,
		LanguageTypos: map[lang.Code]*lexicon.Lexicon{lang.Indonesian: indonesian},
	})
	require.NoError(t, err)
	return n
}

func TestNormalizeBasics(t *testing.T) {
	n := testNormalizer(t)

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \t\n ", ""},
		{"How do I save a Status?", "how do i save a status"},
		{"What's   up!!!with  this", "whats up with this"},
		{"helo, can I downlaod?", "hello can i download"},
		{"e-mail_address 42", "email_address 42"},
		{"स्टेटस कैसे डाउनलोड करें?", "स्टेटस कैसे डाउनलोड करें"},
		{"हेलो।", "नमस्ते"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, n.Normalize(tc.in, lang.English), "input %q", tc.in)
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	n := testNormalizer(t)
	assert.Equal(t, n.Normalize("whatsapp", ""), n.Normalize("WhatsApp", ""))
	assert.Equal(t, n.Normalize("WATSAP status", lang.English), n.Normalize("watsap STATUS", lang.English))
}

func TestNormalizeKnownTypo(t *testing.T) {
	n := testNormalizer(t)
	assert.Contains(t, n.Normalize("helo", lang.English), "hello")
	assert.Equal(t, "whatsapp", n.Normalize("WA", lang.English))
}

func TestNormalizeLanguageTypos(t *testing.T) {
	n := testNormalizer(t)
	assert.Equal(t, "hai", n.Normalize("halo", lang.Indonesian))
	assert.Equal(t, "halo", n.Normalize("halo", lang.English))
	// Shared typos still apply to a language with its own table.
	assert.Equal(t, "whatsapp", n.Normalize("watsap", lang.Indonesian))
}

func TestNormalizeIdempotent(t *testing.T) {
	n := testNormalizer(t)
	samples := []string{
		"How do I downlaod my friend's STATUS??",
		"  helo   watsap  ",
		"Bagaimana cara unduh status WA? halo!",
		"मैं व्हाट्सएप स्टेटस कैसे डाउनलोड करूँ?",
		"हेलो दोस्त।। क्या हाल है",
		"İstanbul CAFÉ ñandú — 3.14%",
		"status kaise download kare bhai???",
		"á é", // decomposed accents
		"",
	}
	for _, s := range samples {
		for _, code := range []lang.Code{"", lang.English, lang.Hindi, lang.Indonesian} {
			once := n.Normalize(s, code)
			assert.Equal(t, once, n.Normalize(once, code), "input %q (%s)", s, code)
		}
	}
}

func TestNormalizePreservesDevanagariSigns(t *testing.T) {
	n := testNormalizer(t)
	// Vowel signs and virama are combining marks, not letters.
	in := "व्हाट्सएप"
	assert.Equal(t, in, n.Normalize(in, lang.Hindi))
}

func TestNewRejectsUnnormalizedCanonical(t *testing.T) {
	bad, err := lexicon.FromGroups([]lexicon.Group{
		{Canonical: "whats app", Variants: []string{"wa"}},
	})
	require.NoError(t, err)

	_, err = New(Options{Typos: bad})
	assert.Error(t, err)

	punct, err := lexicon.FromGroups([]lexicon.Group{
		{Canonical: "what's", Variants: []string{"wats"}},
	})
	require.NoError(t, err)
	_, err = New(Options{Typos: punct})
	assert.Error(t, err)
}

func TestCustomPreserveRanges(t *testing.T) {
	n, err := New(Options{Preserve: []RuneRange{}})
	require.NoError(t, err)
	// Without the Devanagari range the vowel sign is dropped.
	assert.NotEqual(t, "कैसे", n.Normalize("कैसे", lang.Hindi))
}

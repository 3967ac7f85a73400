package ingest

import (
	snowballeng "github.com/kljensen/snowball/english"

	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Stemmer reduces a token to a stem. The stem need not be a real word.
type Stemmer interface {
	Stem(token string) string
}

// StemmerFunc adapts a function to Stemmer.
type StemmerFunc func(string) string

// Stem implements Stemmer.
func (f StemmerFunc) Stem(token string) string { return f(token) }

// EnglishStemmer applies the Snowball English stemmer to ASCII words and
// leaves everything else (digits, other scripts) untouched.
var EnglishStemmer Stemmer = StemmerFunc(func(token string) string {
	if !isASCIIWord(token) {
		return token
	}
	return snowballeng.Stem(token, false)
})

// DefaultStemmers returns the built-in stemmers. Hinglish shares the English
// stemmer because it is written in Latin script; Hindi and Indonesian are
// left unstemmed.
func DefaultStemmers() map[lang.Code]Stemmer {
	return map[lang.Code]Stemmer{
		lang.English:  EnglishStemmer,
		lang.Hinglish: EnglishStemmer,
	}
}

func isASCIIWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

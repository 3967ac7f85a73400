// Package lang defines the language codes understood by the engine.
package lang

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Code is a lower-case language tag such as "en" or "hi".
type Code string

// Built-in languages.
const (
	English    Code = "en"
	Hindi      Code = "hi"
	Indonesian Code = "id"
	// Hinglish is romanized, code-mixed Hindi. It only affects which canned
	// answer is returned; matching treats it like any Latin-script input.
	Hinglish Code = "hinglish"
)

// Builtin lists the languages with built-in stopwords, greetings and replies.
var Builtin = []Code{English, Hindi, Indonesian, Hinglish}

// Parse lower-cases and trims s and rejects empty or malformed codes.
func Parse(s string) (Code, error) {
	c := Code(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", errors.Newf("invalid language code %q", s)
	}
	return c, nil
}

// Valid reports whether c is a syntactically valid code: non-empty ASCII
// letters with optional '-' separators.
func (c Code) Valid() bool {
	if c == "" {
		return false
	}
	for i, r := range c {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '-' && i > 0 && i < len(c)-1:
		default:
			return false
		}
	}
	return true
}

func (c Code) String() string { return string(c) }

// Contains reports whether list holds c.
func Contains(list []Code, c Code) bool {
	for _, l := range list {
		if l == c {
			return true
		}
	}
	return false
}

// Package similarity scores how alike two tokens are.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/cockroachdb/errors"
)

// Func scores two tokens on a 0–100 scale; 100 means identical.
type Func func(a, b string) float64

// Scorer names accepted by ByName.
const (
	ScorerRatio   = "ratio"
	ScorerPartial = "partial"
	ScorerMax     = "max"
)

// partialMinLen is the shortest token compared by window; shorter tokens
// would match inside almost any longer word.
const partialMinLen = 4

// ByName returns the scorer registered under name ("" means ratio).
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerRatio:
		return Ratio, nil
	case ScorerPartial:
		return Partial, nil
	case ScorerMax:
		return Max, nil
	default:
		return nil, errors.Newf("unknown similarity scorer %q", name)
	}
}

// Ratio is the normalized Levenshtein similarity:
//
//	100 · (1 − distance / max(len(a), len(b)))
//
// with lengths in runes.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// Partial compares the shorter token against every equally long window of
// the longer one and keeps the best Ratio. Tokens shorter than four runes
// fall back to Ratio.
func Partial(a, b string) float64 {
	if a == b {
		return 100
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < partialMinLen || len(short) == len(long) {
		return Ratio(a, b)
	}
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := Ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Max is the larger of Ratio and Partial.
func Max(a, b string) float64 {
	r := Ratio(a, b)
	if p := Partial(a, b); p > r {
		return p
	}
	return r
}

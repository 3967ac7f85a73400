package ingest

import (
	"reflect"
	"testing"
)

func TestPhraseParserBasic(t *testing.T) {
	parser := NewPhraseParser([]Phrase{
		{Canonical: "good morning"},
		{Canonical: "selamat pagi"},
	})

	got := parser.Parse([]string{"good", "morning", "team"})
	want := []string{"good morning", "team"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestPhraseParserVariants(t *testing.T) {
	parser := NewPhraseParser([]Phrase{
		{Canonical: "see you", Variants: []string{"cya", "see ya"}},
	})

	got := parser.Parse([]string{"ok", "cya"})
	if !reflect.DeepEqual(got, []string{"ok", "see you"}) {
		t.Errorf("Parse(cya) = %v", got)
	}
	got = parser.Parse([]string{"see", "ya"})
	if !reflect.DeepEqual(got, []string{"see you"}) {
		t.Errorf("Parse(see ya) = %v", got)
	}
}

func TestPhraseParserGreedyLongest(t *testing.T) {
	parser := NewPhraseParser([]Phrase{
		{Canonical: "good night"},
		{Canonical: "good night everyone"},
	})

	got := parser.Parse([]string{"good", "night", "everyone"})
	if len(got) != 1 || got[0] != "good night everyone" {
		t.Errorf("Should match longest phrase, got %v", got)
	}
}

func TestPhraseParserDevanagari(t *testing.T) {
	parser := NewPhraseParser(PhrasesFrom([]string{"शुभ प्रभात"}, []string{"hello"}))

	got := parser.Parse([]string{"शुभ", "प्रभात"})
	if !reflect.DeepEqual(got, []string{"शुभ प्रभात"}) {
		t.Errorf("Parse() = %v", got)
	}
	if parser.Len() != 2 {
		t.Errorf("Len() = %d, want 2", parser.Len())
	}
}

func TestPhraseParserNil(t *testing.T) {
	var parser *PhraseParser
	tokens := []string{"a", "b"}
	if got := parser.Parse(tokens); !reflect.DeepEqual(got, tokens) {
		t.Errorf("nil parser changed tokens: %v", got)
	}
	if parser.Len() != 0 {
		t.Error("nil parser Len() should be 0")
	}
}

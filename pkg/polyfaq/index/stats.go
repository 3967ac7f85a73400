package index

import (
	"sort"

	"github.com/cognicore/polyfaq/pkg/polyfaq/stoplist"
)

// KeywordStat describes one keyword of the index.
type KeywordStat struct {
	Keyword string
	DF      int
	IDF     float64
}

// Stats summarizes an index.
type Stats struct {
	Documents   int
	Vocabulary  int
	MinKeywords int
	MaxKeywords int
	AvgKeywords float64
	// Keywords is ordered by descending DF, then keyword.
	Keywords []KeywordStat
}

// Stats computes document-frequency statistics.
func (ix *SearchIndex) Stats() Stats {
	s := Stats{Documents: len(ix.Documents)}
	if s.Documents == 0 {
		return s
	}

	df := make(map[string]int)
	total := 0
	s.MinKeywords = len(ix.Documents[0].Keywords)
	for i := range ix.Documents {
		kws := ix.Documents[i].Keywords
		total += len(kws)
		if len(kws) < s.MinKeywords {
			s.MinKeywords = len(kws)
		}
		if len(kws) > s.MaxKeywords {
			s.MaxKeywords = len(kws)
		}
		for _, kw := range kws {
			df[kw]++
		}
	}
	s.Vocabulary = len(df)
	s.AvgKeywords = float64(total) / float64(s.Documents)

	s.Keywords = make([]KeywordStat, 0, len(df))
	for kw, count := range df {
		s.Keywords = append(s.Keywords, KeywordStat{
			Keyword: kw,
			DF:      count,
			IDF:     ix.IDF.Weight(kw, IDF(s.Documents, count)),
		})
	}
	sort.Slice(s.Keywords, func(i, j int) bool {
		if s.Keywords[i].DF != s.Keywords[j].DF {
			return s.Keywords[i].DF > s.Keywords[j].DF
		}
		return s.Keywords[i].Keyword < s.Keywords[j].Keyword
	})
	return s
}

// Top returns at most n keywords with the highest DF.
func (s Stats) Top(n int) []KeywordStat {
	if n < 0 || n > len(s.Keywords) {
		n = len(s.Keywords)
	}
	return s.Keywords[:n]
}

// StopwordStats converts keyword statistics into stoplist input.
func (s Stats) StopwordStats() []stoplist.Stats {
	if s.Documents == 0 {
		return nil
	}
	out := make([]stoplist.Stats, 0, len(s.Keywords))
	for _, k := range s.Keywords {
		out = append(out, stoplist.Stats{
			Token:     k.Keyword,
			DF:        int64(k.DF),
			DFPercent: 100 * float64(k.DF) / float64(s.Documents),
			IDF:       k.IDF,
		})
	}
	return out
}

// SuggestStopwords lists keywords that occur in so many documents that
// they barely discriminate. Keywords already in stops are skipped; stops
// may be nil.
func (ix *SearchIndex) SuggestStopwords(stops *stoplist.Manager, thresholds stoplist.Thresholds) []stoplist.Candidate {
	return stops.SuggestCandidates(ix.Stats().StopwordStats(), thresholds)
}

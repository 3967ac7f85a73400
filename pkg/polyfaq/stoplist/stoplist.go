package stoplist

import (
	"sort"
	"strings"
)

// Manager holds the stopwords of one language. Lookups are safe for
// concurrent use as long as nobody calls Add or Remove at the same time.
type Manager struct {
	stops map[string]Reason
}

// Reason explains why a token is a stopword
type Reason struct {
	Configured bool    // listed in configuration
	HighDF     bool    // suggested from document frequency
	DFPercent  float64 // share of documents containing the token
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		stops[s] = Reason{Configured: true}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword. A nil Manager has no stopwords.
func (m *Manager) IsStop(token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.stops[strings.ToLower(token)] = reason
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	if m == nil {
		return nil
	}
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.stops)
}

// Stats holds document-frequency statistics for one keyword
type Stats struct {
	Token     string
	DF        int64
	DFPercent float64
	IDF       float64
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score in [0,1]
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g., 50% - appears in half of the documents
	MinDF     int64   // ignore tokens seen in fewer documents than this
}

// DefaultThresholds returns defaults tuned for small FAQ corpora, where a
// keyword shared by half of the entries barely discriminates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 50.0,
		MinDF:     2,
	}
}

// SuggestCandidates suggests keywords that behave like stopwords: they
// occur in too many documents to tell entries apart. Already-listed
// stopwords are skipped. Results are ordered by score, then token.
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds) []Candidate {
	if thresholds.DFPercent == 0 {
		thresholds.DFPercent = DefaultThresholds().DFPercent
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue
		}
		if s.DF < thresholds.MinDF || s.DFPercent <= thresholds.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token: s.Token,
			Reason: Reason{
				HighDF:    true,
				DFPercent: s.DFPercent,
			},
			Score: s.DFPercent / 100.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}

// Package corpus loads and validates the multilingual FAQ corpus.
package corpus

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// ID identifies an entry. In JSON it may be a string or an integer.
type ID string

// UnmarshalJSON accepts "12", 12 and "save-status".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Newf("id must be a string or number, got %s", data)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return errors.Newf("id must be an integer, got %s", n)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Entry is one question-answer unit available in several languages.
type Entry struct {
	ID          ID                     `json:"id"`
	Question    map[lang.Code]string   `json:"question"`
	Paraphrases map[lang.Code][]string `json:"paraphrases,omitempty"`
	Answer      map[lang.Code]string   `json:"answer"`
}

// Languages returns the entry's question languages in sorted order.
func (e Entry) Languages() []lang.Code {
	out := make([]lang.Code, 0, len(e.Question))
	for code := range e.Question {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Phrases returns the canonical question followed by its paraphrases for
// one language.
func (e Entry) Phrases(language lang.Code) []string {
	q, ok := e.Question[language]
	if !ok {
		return nil
	}
	phrases := make([]string, 0, 1+len(e.Paraphrases[language]))
	phrases = append(phrases, q)
	return append(phrases, e.Paraphrases[language]...)
}

// Validate checks the entry against the required languages.
func (e Entry) Validate(required []lang.Code) error {
	if e.ID == "" {
		return errors.Wrap(internalerr.ErrInvalidCorpus, "entry without id")
	}
	if len(e.Question) == 0 {
		return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: no questions", e.ID)
	}
	for _, code := range required {
		if _, ok := e.Question[code]; !ok {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: missing question for required language %s", e.ID, code)
		}
	}
	for code, q := range e.Question {
		if !code.Valid() {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: invalid language code %q", e.ID, code)
		}
		if strings.TrimSpace(q) == "" {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: empty question for %s", e.ID, code)
		}
		if strings.TrimSpace(e.Answer[code]) == "" {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: missing answer for %s", e.ID, code)
		}
	}
	for code := range e.Answer {
		if !code.Valid() {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: invalid language code %q", e.ID, code)
		}
	}
	for code := range e.Paraphrases {
		if _, ok := e.Question[code]; !ok {
			return errors.Wrapf(internalerr.ErrInvalidCorpus, "entry %s: paraphrases for %s without a question", e.ID, code)
		}
	}
	return nil
}

// Corpus is a validated, read-only list of entries.
type Corpus struct {
	entries []Entry
	byID    map[ID]int
}

// New validates entries and builds a corpus. Required languages must be
// present in every entry.
func New(entries []Entry, required []lang.Code) (*Corpus, error) {
	if len(entries) == 0 {
		return nil, errors.Wrap(internalerr.ErrInvalidCorpus, "no entries")
	}
	c := &Corpus{
		entries: make([]Entry, len(entries)),
		byID:    make(map[ID]int, len(entries)),
	}
	for i, e := range entries {
		if err := e.Validate(required); err != nil {
			return nil, errors.Wrapf(err, "entry #%d", i)
		}
		if prev, dup := c.byID[e.ID]; dup {
			return nil, errors.Wrapf(internalerr.ErrInvalidCorpus, "duplicate id %s (entries #%d and #%d)", e.ID, prev, i)
		}
		c.byID[e.ID] = i
		c.entries[i] = e
	}
	return c, nil
}

// Parse decodes a JSON array of entries and validates it.
func Parse(r io.Reader, required []lang.Code) (*Corpus, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidCorpus, "decode: %v", err)
	}
	return New(entries, required)
}

// Load reads and validates a corpus file.
func Load(path string, required []lang.Code) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidCorpus, "open %s: %v", path, err)
	}
	defer f.Close()

	c, err := Parse(f, required)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

// Entries returns the entries in file order. Callers must not modify them.
func (c *Corpus) Entries() []Entry { return c.entries }

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.entries) }

// Get looks up an entry by id.
func (c *Corpus) Get(id ID) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Languages returns every question language in the corpus, sorted.
func (c *Corpus) Languages() []lang.Code {
	seen := make(map[lang.Code]struct{})
	for _, e := range c.entries {
		for code := range e.Question {
			seen[code] = struct{}{}
		}
	}
	out := make([]lang.Code, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

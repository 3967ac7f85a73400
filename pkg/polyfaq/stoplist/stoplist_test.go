package stoplist

import (
	"testing"
)

func TestManagerBasic(t *testing.T) {
	stops := []string{"the", "A", "and", " "}
	mgr := NewManager(stops)

	if !mgr.IsStop("the") {
		t.Error("'the' should be a stopword")
	}
	if !mgr.IsStop("a") {
		t.Error("stopwords should be lower-cased")
	}
	if mgr.IsStop("hello") {
		t.Error("'hello' should not be a stopword")
	}
	if mgr.Len() != 3 {
		t.Errorf("blank entries should be skipped, got %d stopwords", mgr.Len())
	}
}

func TestNilManager(t *testing.T) {
	var mgr *Manager
	if mgr.IsStop("the") {
		t.Error("nil manager should have no stopwords")
	}
	if mgr.Len() != 0 || mgr.All() != nil {
		t.Error("nil manager should be empty")
	}
}

func TestManagerAddRemove(t *testing.T) {
	mgr := NewManager([]string{"the"})

	mgr.Add("kya", Reason{HighDF: true})
	if !mgr.IsStop("kya") {
		t.Error("'kya' should be stopword after adding")
	}

	mgr.Remove("kya")
	if mgr.IsStop("kya") {
		t.Error("'kya' should not be stopword after removing")
	}
}

func TestManagerAllSorted(t *testing.T) {
	mgr := NewManager([]string{"के", "di", "the", "and"})
	all := mgr.All()

	if len(all) != 4 {
		t.Fatalf("Expected 4 stopwords, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] > all[i] {
			t.Errorf("All() not sorted: %v", all)
		}
	}
}

func TestSuggestCandidates(t *testing.T) {
	mgr := NewManager([]string{"how"})
	stats := []Stats{
		{Token: "how", DF: 9, DFPercent: 90},
		{Token: "whatsapp", DF: 8, DFPercent: 80},
		{Token: "status", DF: 6, DFPercent: 60},
		{Token: "download", DF: 2, DFPercent: 20},
		{Token: "rare", DF: 1, DFPercent: 100},
	}

	got := mgr.SuggestCandidates(stats, DefaultThresholds())
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got)
	}
	if got[0].Token != "whatsapp" || got[1].Token != "status" {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got[0].Reason.HighDF || got[0].Score != 0.8 {
		t.Errorf("unexpected candidate: %+v", got[0])
	}
}

func TestSuggestCandidatesDefaultsThreshold(t *testing.T) {
	mgr := NewManager(nil)
	got := mgr.SuggestCandidates([]Stats{{Token: "status", DF: 3, DFPercent: 55}}, Thresholds{})
	if len(got) != 1 {
		t.Errorf("zero DFPercent should fall back to default, got %+v", got)
	}
}

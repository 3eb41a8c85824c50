package search

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

func loadSample(t *testing.T) *searchindex.Index {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("index", "testdata", "searchindex.js"))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := searchindex.Load(raw)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return idx
}

func ids(results []Result) []searchindex.DocumentID {
	out := make([]searchindex.DocumentID, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestTokenize(t *testing.T) {
	q := Tokenize("The Kubernetes  -Plotting, kubernetes basics")
	want := Query{
		Words: []Word{
			{Text: "kubernetes", Stem: "kubernet"},
			{Text: "basics", Stem: "basic"},
		},
		Excluded: []Word{{Text: "plotting", Stem: "plot"}},
	}
	if !reflect.DeepEqual(q, want) {
		t.Fatalf("Tokenize: got %+v want %+v", q, want)
	}
}

func TestTokenize_FoldsUnicode(t *testing.T) {
	q := Tokenize("STRASSE Ǆ")
	if len(q.Words) != 2 || q.Words[0].Text != "strasse" || q.Words[1].Text != "ǆ" {
		t.Fatalf("unexpected fold: %+v", q.Words)
	}
}

func TestSearch_TitleBeatsTerm(t *testing.T) {
	idx := loadSample(t)
	res := Search(idx, "kubernetes", Options{})
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %+v", res)
	}
	if res[0].ID != 3 || res[0].Title != "Kubernetes" || res[0].Score != ScoreTitle {
		t.Fatalf("unexpected result: %+v", res[0])
	}
}

func TestSearch_AllWordsMustMatch(t *testing.T) {
	idx := loadSample(t)
	res := Search(idx, "plotting basics", Options{})
	if got := ids(res); !reflect.DeepEqual(got, []searchindex.DocumentID{3}) {
		t.Fatalf("got %v want [3]", got)
	}
}

func TestSearch_Exclusion(t *testing.T) {
	idx := loadSample(t)
	res := Search(idx, "python -kubernetes", Options{})
	want := []searchindex.DocumentID{0, 2, 1} // GTFS Schedule, Juniper Documentation, Overview
	if got := ids(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for _, r := range res {
		if r.Score != ScoreTerm {
			t.Fatalf("expected term score for %+v", r)
		}
	}
}

func TestSearch_PartialMatch(t *testing.T) {
	idx := loadSample(t)
	res := Search(idx, "kubern", Options{})
	if len(res) != 1 || res[0].ID != 3 || res[0].Score != ScorePartialTitle {
		t.Fatalf("unexpected partial result: %+v", res)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	idx := loadSample(t)
	for _, q := range []string{"", "the", "zzzzqqq", "kubernetes zzzzqqq"} {
		if res := Search(idx, q, Options{}); len(res) != 0 {
			t.Fatalf("Search(%q): expected no results, got %+v", q, res)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	idx := loadSample(t)
	if res := Search(idx, "python", Options{Limit: 2}); len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
}

func TestSearch_AnchorsCarried(t *testing.T) {
	idx, err := searchindex.Load([]byte(`{docnames:["a","b"],titles:["A","B"],
		terms:{plot:{"1":["basics","greek-letters"]}},
		titleterms:{"1":{basics:"Basic plotting","greek-letters":"Greek letters"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	res := Search(idx, "plots", Options{})
	if len(res) != 1 || len(res[0].Anchors) != 2 || res[0].Anchors[1].Title != "Greek letters" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

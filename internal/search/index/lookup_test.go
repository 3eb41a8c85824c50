package index

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func mustLoad(t *testing.T, raw string) *Index {
	t.Helper()
	idx, err := Load([]byte(raw))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return idx
}

func TestLookupTerm_SimplePostings(t *testing.T) {
	idx := mustLoad(t, `{"docnames":["a","b"],"titles":["Doc A","Doc B"],"terms":{"kubernetes":[1]}}`)

	m := idx.LookupTerm("kubernetes")
	if len(m) != 1 {
		t.Fatalf("expected 1 match, got %d", len(m))
	}
	if m[0].ID != 1 || m[0].Title != "Doc B" || m[0].Path != "b" {
		t.Fatalf("unexpected match: %+v", m[0])
	}
	if m[0].Anchors != nil {
		t.Fatalf("simple postings carry no anchors: %+v", m[0].Anchors)
	}

	if got := idx.LookupTerm("missing"); len(got) != 0 {
		t.Fatalf("expected no matches for missing term, got %+v", got)
	}
	if idx.HasTerm("missing") {
		t.Fatalf("missing term reported present")
	}
}

func TestLookupTerm_AnchoredPostings(t *testing.T) {
	idx := mustLoad(t, `{"docnames":["a","b"],"titles":["Doc A","Doc B"],
		"terms":{"plot":{"1":["basics","greek-letters"]}},
		"titleterms":{"1":{"basics":"Basic plotting","greek-letters":"Greek letters"}}}`)

	m := idx.LookupTerm("plot")
	if len(m) != 1 || m[0].ID != 1 {
		t.Fatalf("expected one match at position 1, got %+v", m)
	}
	want := []AnchorMatch{
		{ID: "basics", Title: "Basic plotting"},
		{ID: "greek-letters", Title: "Greek letters"},
	}
	if !reflect.DeepEqual(m[0].Anchors, want) {
		t.Fatalf("anchors: got %+v want %+v", m[0].Anchors, want)
	}
}

func TestLookupTerm_AnchoredOrderAndMissingSectionTitle(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b","c"],terms:{x:{"2":["z"],"0":["y"]}}}`)
	m := idx.LookupTerm("x")
	if len(m) != 2 || m[0].ID != 0 || m[1].ID != 2 {
		t.Fatalf("anchored matches must be in position order: %+v", m)
	}
	if m[0].Anchors[0] != (AnchorMatch{ID: "y"}) {
		t.Fatalf("unknown section title must be empty: %+v", m[0].Anchors)
	}
}

func TestLookupTerm_MatchesArePostingsEntries(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b","c","d"],terms:{w:[3,0,2]}}`)
	var got []DocumentID
	for _, m := range idx.LookupTerm("w") {
		got = append(got, m.ID)
	}
	want := []DocumentID{3, 0, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLookupTerm_EmptyPostingsKeepPresence(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a"],terms:{gone:[]}}`)
	if !idx.HasTerm("gone") {
		t.Fatalf("term with empty postings must be present")
	}
	m := idx.LookupTerm("gone")
	if m == nil || len(m) != 0 {
		t.Fatalf("expected empty non-nil matches, got %#v", m)
	}
	if s := idx.Stats(); s.EmptyTerms != 1 {
		t.Fatalf("stats: %+v", s)
	}
}

func TestLookupTerm_SkipsOutOfRangePostings(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b"],terms:{w:[1,7]}}`)
	m := idx.LookupTerm("w")
	if len(m) != 1 || m[0].ID != 1 {
		t.Fatalf("expected only position 1, got %+v", m)
	}
}

func TestLookupTerm_Idempotent(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b"],titles:["A","B"],terms:{p:{"0":["s"]},q:[1,0]},titleterms:{"0":{s:"S"}}}`)
	for _, term := range []string{"p", "q", "absent"} {
		first := idx.LookupTerm(term)
		if len(first) > 0 && first[0].Anchors != nil {
			first[0].Anchors[0].Title = "mutated by caller"
		}
		first = idx.LookupTerm(term)
		second := idx.LookupTerm(term)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s: lookups differ: %+v vs %+v", term, first, second)
		}
	}
	if got := idx.LookupTerm("p")[0].Anchors[0].Title; got != "S" {
		t.Fatalf("caller mutation leaked into index: %q", got)
	}
}

func TestResolveDocument_OutOfRange(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b"],titles:["A","B"]}`)
	for _, id := range []DocumentID{2, 100, -1} {
		_, err := idx.ResolveDocument(id)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("ResolveDocument(%d): expected ErrOutOfRange, got %v", id, err)
		}
		var oor *OutOfRangeError
		if !errors.As(err, &oor) || oor.ID != id || oor.Len != 2 {
			t.Fatalf("ResolveDocument(%d): unexpected error %#v", id, err)
		}
	}
}

func TestResolveDocument_ShortTitles(t *testing.T) {
	idx := mustLoad(t, `{docnames:["a","b"],titles:["A"]}`)
	info, err := idx.ResolveDocument(1)
	if err != nil {
		t.Fatalf("ResolveDocument: %v", err)
	}
	if info.Title != "" || info.Path != "b" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestTermsSorted(t *testing.T) {
	idx := mustLoad(t, `{terms:{b:[],a:[],c:[]},titleterms:{z:[],y:[]}}`)
	if got := idx.Terms(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Terms: %v", got)
	}
	if got := idx.TitleWords(); !reflect.DeepEqual(got, []string{"y", "z"}) {
		t.Fatalf("TitleWords: %v", got)
	}
}

func TestAllTerms_SortedAndShared(t *testing.T) {
	idx := mustLoad(t, `{terms:{b:[],a:[],c:[]},titleterms:{z:[],y:[]}}`)
	if got := slices.Collect(idx.AllTerms()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("AllTerms: %v", got)
	}
	if got := slices.Collect(idx.AllTitleWords()); !reflect.DeepEqual(got, []string{"y", "z"}) {
		t.Fatalf("AllTitleWords: %v", got)
	}

	// Terms hands out a copy; changing it must not affect later calls.
	terms := idx.Terms()
	terms[0] = "zzz"
	if first := slices.Collect(idx.AllTerms())[0]; first != "a" {
		t.Fatalf("Terms exposed internal state: %q", first)
	}
}

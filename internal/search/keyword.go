package search

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"golang.org/x/text/cases"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

// stopwords are never searched; Sphinx leaves them out of the index.
var stopwords = map[string]struct{}{
	"a": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "near": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "such": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {}, "was": {},
	"will": {}, "with": {},
}

// Tokenize parses a query. Words prefixed with '-' are exclusions. Words are
// Unicode case-folded, stop words dropped, and each word stemmed with the
// Porter algorithm the index was built with.
func Tokenize(q string) Query {
	fold := cases.Fold()
	var out Query
	seen := make(map[string]bool)
	for _, field := range strings.Fields(q) {
		excluded := strings.HasPrefix(field, "-")
		field = strings.TrimLeft(field, "-")
		for _, part := range strings.FieldsFunc(field, isSeparator) {
			text := fold.String(part)
			if _, stop := stopwords[text]; stop {
				continue
			}
			w := Word{Text: text, Stem: porterstemmer.StemString(text)}
			key := w.Stem
			if excluded {
				key = "-" + key
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if excluded {
				out.Excluded = append(out.Excluded, w)
			} else {
				out.Words = append(out.Words, w)
			}
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

// Search evaluates query against idx. Every query word must match a document
// (through its terms or its titles) and no excluded word may.
func Search(idx *searchindex.Index, query string, opts Options) []Result {
	q := Tokenize(query)
	if len(q.Words) == 0 {
		return []Result{}
	}

	type hit struct {
		result Result
		words  map[string]int
		anchor map[string]bool
	}
	hits := make(map[searchindex.DocumentID]*hit)

	for _, w := range q.Words {
		recs := wordMatches(idx, w, true)
		if len(recs) == 0 {
			return []Result{}
		}
		for _, rec := range recs {
			for _, m := range rec.matches {
				h, ok := hits[m.ID]
				if !ok {
					h = &hit{
						result: Result{DocumentInfo: m.DocumentInfo},
						words:  make(map[string]int),
						anchor: make(map[string]bool),
					}
					hits[m.ID] = h
				}
				if rec.score > h.words[w.Stem] {
					h.words[w.Stem] = rec.score
				}
				for _, a := range m.Anchors {
					if !h.anchor[a.ID] {
						h.anchor[a.ID] = true
						h.result.Anchors = append(h.result.Anchors, a)
					}
				}
			}
		}
	}

	excluded := make(map[searchindex.DocumentID]bool)
	for _, w := range q.Excluded {
		for _, rec := range wordMatches(idx, w, false) {
			for _, m := range rec.matches {
				excluded[m.ID] = true
			}
		}
	}

	out := make([]Result, 0, len(hits))
	for id, h := range hits {
		if len(h.words) != len(q.Words) || excluded[id] {
			continue
		}
		for _, s := range h.words {
			h.result.Score = max(h.result.Score, s)
		}
		out = append(out, h.result)
	}

	SortResults(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

type scored struct {
	matches []searchindex.DocumentMatch
	score   int
}

// wordMatches collects every way w matches the index. Partial (substring)
// matches are only tried when allowed and the word has no exact entry.
func wordMatches(idx *searchindex.Index, w Word, partial bool) []scored {
	var recs []scored
	add := func(m []searchindex.DocumentMatch, score int) {
		if len(m) > 0 {
			recs = append(recs, scored{matches: m, score: score})
		}
	}

	candidates := []string{w.Stem}
	if w.Text != w.Stem {
		candidates = append(candidates, w.Text)
	}

	var exactTerm, exactTitle bool
	for _, c := range candidates {
		if idx.HasTerm(c) {
			exactTerm = true
			add(idx.LookupTerm(c), ScoreTerm)
		}
		if m := idx.LookupTitleTerm(c); len(m) > 0 {
			exactTitle = true
			add(m, ScoreTitle)
		}
	}

	if !partial || len([]rune(w.Stem)) <= 2 {
		return recs
	}
	if !exactTerm {
		for term := range idx.AllTerms() {
			if term != w.Stem && strings.Contains(term, w.Stem) {
				add(idx.LookupTerm(term), ScorePartialTerm)
			}
		}
	}
	if !exactTitle {
		for word := range idx.AllTitleWords() {
			if word != w.Stem && strings.Contains(word, w.Stem) {
				add(idx.LookupTitleTerm(word), ScorePartialTitle)
			}
		}
	}
	return recs
}

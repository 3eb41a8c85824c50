package index

import (
	"iter"
	"maps"
	"slices"
)

// Len returns the number of documents in the index.
func (idx *Index) Len() int { return len(idx.docnames) }

// Digest returns the sha256 of the bytes the index was loaded from.
func (idx *Index) Digest() string { return idx.digest }

// ResolveDocument returns path and title for the document at id.
func (idx *Index) ResolveDocument(id DocumentID) (DocumentInfo, error) {
	if id < 0 || int(id) >= len(idx.docnames) {
		return DocumentInfo{}, &OutOfRangeError{ID: id, Len: len(idx.docnames)}
	}
	return DocumentInfo{
		ID:       id,
		Path:     idx.docnames[id],
		Filename: at(idx.filenames, int(id)),
		Title:    at(idx.titles, int(id)),
	}, nil
}

// Documents returns every document in position order.
func (idx *Index) Documents() []DocumentInfo {
	out := make([]DocumentInfo, 0, len(idx.docnames))
	for i := range idx.docnames {
		info, _ := idx.ResolveDocument(DocumentID(i))
		out = append(out, info)
	}
	return out
}

// LookupTerm returns the documents term occurs in. Matching is exact; an
// absent term and a term with empty postings both yield an empty slice.
// Postings pointing outside the document set are skipped.
func (idx *Index) LookupTerm(term string) []DocumentMatch {
	p, ok := idx.terms[term]
	if !ok {
		return []DocumentMatch{}
	}
	return idx.hydrate(p)
}

// LookupTitleTerm is LookupTerm over words that occur in page or section titles.
func (idx *Index) LookupTitleTerm(word string) []DocumentMatch {
	p, ok := idx.titlePostings[word]
	if !ok {
		return []DocumentMatch{}
	}
	return idx.hydrate(p)
}

// HasTerm reports whether term is indexed at all, even with empty postings.
func (idx *Index) HasTerm(term string) bool {
	_, ok := idx.terms[term]
	return ok
}

// Postings returns the raw postings of term.
func (idx *Index) Postings(term string) (Postings, bool) {
	p, ok := idx.terms[term]
	return p, ok
}

// Terms returns every indexed term in sorted order.
func (idx *Index) Terms() []string { return slices.Clone(idx.termList) }

// AllTerms iterates the indexed terms in sorted order without copying them.
func (idx *Index) AllTerms() iter.Seq[string] { return slices.Values(idx.termList) }

// TitleWords returns every indexed title word in sorted order.
func (idx *Index) TitleWords() []string { return slices.Clone(idx.titleWordList) }

// AllTitleWords iterates the indexed title words in sorted order without
// copying them.
func (idx *Index) AllTitleWords() iter.Seq[string] { return slices.Values(idx.titleWordList) }

// SectionTitle returns the human-readable title of anchor in document id.
func (idx *Index) SectionTitle(id DocumentID, anchor string) (string, bool) {
	t, ok := idx.sections[id][anchor]
	return t, ok
}

// EnvVersion returns a copy of the generator's environment metadata.
func (idx *Index) EnvVersion() map[string]int {
	return maps.Clone(idx.env)
}

// Stats summarizes the index.
func (idx *Index) Stats() Stats {
	s := Stats{
		Documents:  len(idx.docnames),
		Terms:      len(idx.terms),
		TitleTerms: len(idx.titlePostings),
		Digest:     idx.digest,
	}
	for _, p := range idx.terms {
		if p.Len() == 0 {
			s.EmptyTerms++
		}
		if _, ok := p.(AnchoredPostings); ok {
			s.AnchoredTerms++
		}
	}
	for _, anchors := range idx.sections {
		s.Sections += len(anchors)
	}
	return s
}

func (idx *Index) hydrate(p Postings) []DocumentMatch {
	anchored, isAnchored := p.(AnchoredPostings)
	out := make([]DocumentMatch, 0, p.Len())
	for _, id := range p.Documents() {
		info, err := idx.ResolveDocument(id)
		if err != nil {
			continue
		}
		m := DocumentMatch{DocumentInfo: info}
		if isAnchored {
			anchors := anchored.Anchors(id)
			m.Anchors = make([]AnchorMatch, 0, len(anchors))
			for _, a := range anchors {
				m.Anchors = append(m.Anchors, AnchorMatch{ID: a, Title: idx.sections[id][a]})
			}
		}
		out = append(out, m)
	}
	return out
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

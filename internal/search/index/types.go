package index

import (
	"encoding/json"
	"slices"
	"strconv"
)

// DocumentID is the position of a document in the index's docnames list.
// It is only meaningful within the index it came from.
type DocumentID int

// Postings lists the documents a term occurs in. The concrete type is either
// SimplePostings or AnchoredPostings; the shape is validated once by Load.
type Postings interface {
	// Documents returns the document positions in postings order.
	Documents() []DocumentID
	// Len returns the number of documents.
	Len() int

	isPostings()
}

// SimplePostings is an ordered list of document positions.
type SimplePostings []DocumentID

func (p SimplePostings) Documents() []DocumentID { return slices.Clone([]DocumentID(p)) }
func (p SimplePostings) Len() int                { return len(p) }
func (SimplePostings) isPostings()               {}

// AnchoredPostings maps each document to the anchors inside it where the term
// occurs. Documents are reported in ascending position order.
type AnchoredPostings struct {
	docs    []DocumentID
	anchors map[DocumentID][]string
}

// NewAnchoredPostings builds anchored postings from a document → anchors map.
func NewAnchoredPostings(m map[DocumentID][]string) AnchoredPostings {
	p := AnchoredPostings{
		docs:    make([]DocumentID, 0, len(m)),
		anchors: make(map[DocumentID][]string, len(m)),
	}
	for id, anchors := range m {
		p.docs = append(p.docs, id)
		p.anchors[id] = slices.Clone(anchors)
	}
	slices.Sort(p.docs)
	return p
}

func (p AnchoredPostings) Documents() []DocumentID { return slices.Clone(p.docs) }
func (p AnchoredPostings) Len() int                { return len(p.docs) }
func (AnchoredPostings) isPostings()               {}

// Anchors returns the anchors recorded for id, in source order.
func (p AnchoredPostings) Anchors(id DocumentID) []string {
	return slices.Clone(p.anchors[id])
}

// MarshalJSON writes postings back in the source shape.
func (p AnchoredPostings) MarshalJSON() ([]byte, error) {
	m := make(map[string][]string, len(p.docs))
	for _, id := range p.docs {
		a := p.anchors[id]
		if a == nil {
			a = []string{}
		}
		m[strconv.Itoa(int(id))] = a
	}
	return json.Marshal(m)
}

// DocumentInfo is the user-facing description of one document.
type DocumentInfo struct {
	ID       DocumentID `json:"position"`
	Path     string     `json:"path"`
	Filename string     `json:"filename,omitempty"`
	Title    string     `json:"title"`
}

// AnchorMatch is one section of a document where a term occurs.
type AnchorMatch struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DocumentMatch is one document returned by a term lookup.
type DocumentMatch struct {
	DocumentInfo
	Anchors []AnchorMatch `json:"anchors,omitempty"`
}

// Stats summarizes a loaded index.
type Stats struct {
	Documents     int    `json:"documents"`
	Terms         int    `json:"terms"`
	EmptyTerms    int    `json:"empty_terms"`
	AnchoredTerms int    `json:"anchored_terms"`
	TitleTerms    int    `json:"title_terms"`
	Sections      int    `json:"sections"`
	Digest        string `json:"digest"`
}

// Index is a loaded search index. It is never modified after Load and may be
// shared by any number of concurrent readers.
type Index struct {
	docnames  []string
	filenames []string
	titles    []string
	env       map[string]int

	terms         map[string]Postings
	titlePostings map[string]Postings
	termList      []string // sorted keys of terms
	titleWordList []string // sorted keys of titlePostings

	// sections holds anchor titles from titleterms merged with alltitles;
	// titleSections only what titleterms carried, for re-encoding.
	sections      map[DocumentID]map[string]string
	titleSections map[DocumentID]map[string]string

	opaque map[string]json.RawMessage
	digest string
}

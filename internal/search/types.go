package search

import searchindex "github.com/kamusis/docidx/internal/search/index"

// Scores given to a document per query word, by how the word matched. A
// document's score is the best score of any of its words.
const (
	ScoreTitle        = 15
	ScorePartialTitle = 7
	ScoreTerm         = 5
	ScorePartialTerm  = 2
)

// Word is one query word after folding and stemming.
type Word struct {
	Text string `json:"text"` // case-folded form as typed
	Stem string `json:"stem"`
}

// Query is a parsed search query.
type Query struct {
	Words    []Word `json:"words"`
	Excluded []Word `json:"excluded,omitempty"`
}

// Result is one document matched by Search.
type Result struct {
	searchindex.DocumentInfo
	Anchors []searchindex.AnchorMatch `json:"anchors,omitempty"`
	Score   int                       `json:"score"`
}

// Options controls Search.
type Options struct {
	Limit int // 0 means no limit
}

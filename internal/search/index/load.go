package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Top-level fields with a defined meaning. Everything else is carried through
// untouched.
const (
	fieldDocnames   = "docnames"
	fieldEnvVersion = "envversion"
	fieldFilenames  = "filenames"
	fieldTerms      = "terms"
	fieldTitles     = "titles"
	fieldTitleTerms = "titleterms"
	fieldAllTitles  = "alltitles"
)

const lockRetryDelay = 50 * time.Millisecond

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// LoadFile reads the index at path and loads it. Gzip and zstd compressed
// files are detected by their magic bytes. A shared lock on path+".lock" is
// held while reading so a concurrent Install is never observed half-written.
func LoadFile(ctx context.Context, path string) (*Index, error) {
	unlock, err := lockShared(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read index %s: %w", path, err)
	}
	raw, err := decodeFile(b)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress index %s: %w", path, err)
	}
	return Load(raw)
}

func lockShared(ctx context.Context, path string) (func(), error) {
	l := flock.New(path + ".lock")
	locked, err := l.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		// Read-only locations (a checked-in build artifact, a mounted volume)
		// cannot hold a lock file; read them unlocked.
		if errors.Is(err, fs.ErrPermission) {
			return func() {}, nil
		}
		return nil, fmt.Errorf("cannot lock index %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("cannot lock index %s", path)
	}
	return func() { _ = l.Unlock() }, nil
}

// decodeFile returns b decompressed when it carries a gzip or zstd header.
func decodeFile(b []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case bytes.HasPrefix(b, zstdMagic):
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(b, nil)
	default:
		return b, nil
	}
}

// Load parses a serialized search index, either plain JSON or the
// Search.setIndex({...}) script Sphinx writes. Absent fields are empty;
// fields of the wrong shape fail with *ParseError.
func Load(raw []byte) (*Index, error) {
	body, err := unwrapSetIndex(raw)
	if err != nil {
		return nil, &ParseError{Msg: "not a search index script", Err: err}
	}
	body, err = literalToJSON(body)
	if err != nil {
		return nil, &ParseError{Msg: "not an object literal", Err: err}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &ParseError{Msg: "top level must be a mapping", Err: err}
	}
	if top == nil {
		return nil, &ParseError{Msg: "top level must be a mapping, got null"}
	}

	idx := &Index{
		env:           map[string]int{},
		terms:         map[string]Postings{},
		titlePostings: map[string]Postings{},
		sections:      map[DocumentID]map[string]string{},
		titleSections: map[DocumentID]map[string]string{},
		opaque:        map[string]json.RawMessage{},
		digest:        Digest(raw),
	}

	for field, v := range top {
		var err error
		switch field {
		case fieldDocnames:
			idx.docnames, err = parseStrings(field, v)
		case fieldFilenames:
			idx.filenames, err = parseStrings(field, v)
		case fieldTitles:
			idx.titles, err = parseStrings(field, v)
		case fieldEnvVersion:
			err = parseEnvVersion(idx, v)
		case fieldTerms:
			err = parseTerms(idx, v)
		case fieldTitleTerms:
			err = parseTitleTerms(idx, v)
		case fieldAllTitles:
			idx.opaque[field] = v
			err = parseAllTitles(idx, v)
		default:
			idx.opaque[field] = v
		}
		if err != nil {
			return nil, err
		}
	}

	for id, anchors := range idx.titleSections {
		m := idx.sectionsFor(id)
		for a, title := range anchors {
			m[a] = title
		}
	}
	idx.termList = slices.Sorted(maps.Keys(idx.terms))
	idx.titleWordList = slices.Sorted(maps.Keys(idx.titlePostings))
	return idx, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func parseStrings(field string, v json.RawMessage) ([]string, error) {
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, &ParseError{Field: field, Msg: "must be a list of strings", Err: err}
	}
	return out, nil
}

func parseEnvVersion(idx *Index, v json.RawMessage) error {
	if isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, &idx.env); err != nil {
		return &ParseError{Field: fieldEnvVersion, Msg: "must map component names to integers", Err: err}
	}
	return nil
}

func parseTerms(idx *Index, v json.RawMessage) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		return &ParseError{Field: fieldTerms, Msg: "must be a mapping", Err: err}
	}
	for term, pv := range raw {
		p, err := parsePostings(pv)
		if err != nil {
			return &ParseError{Field: fieldTerms, Key: term, Msg: "bad postings", Err: err}
		}
		idx.terms[term] = p
	}
	return nil
}

// parseTitleTerms accepts both shapes found in the wild: position → anchor →
// section title, and title word → postings.
func parseTitleTerms(idx *Index, v json.RawMessage) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		return &ParseError{Field: fieldTitleTerms, Msg: "must be a mapping", Err: err}
	}
	for key, ev := range raw {
		if id, err := parseDocKey(key); err == nil && bytes.HasPrefix(bytes.TrimSpace(ev), []byte("{")) {
			var titles map[string]string
			if json.Unmarshal(ev, &titles) == nil {
				if titles == nil {
					titles = map[string]string{}
				}
				idx.titleSections[id] = titles
				continue
			}
		}
		p, err := parsePostings(ev)
		if err != nil {
			return &ParseError{Field: fieldTitleTerms, Key: key, Msg: "neither section titles nor postings", Err: err}
		}
		idx.titlePostings[key] = p
	}
	return nil
}

// parseAllTitles reads {title: [[position, anchor|null], ...]} as a second
// source of section titles.
func parseAllTitles(idx *Index, v json.RawMessage) error {
	var raw map[string][][]json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		return &ParseError{Field: fieldAllTitles, Msg: "must map titles to [position, anchor] pairs", Err: err}
	}
	for title, refs := range raw {
		for _, ref := range refs {
			if len(ref) != 2 {
				return &ParseError{Field: fieldAllTitles, Key: title, Msg: fmt.Sprintf("want [position, anchor], got %d elements", len(ref))}
			}
			var pos int
			if isNull(ref[0]) || json.Unmarshal(ref[0], &pos) != nil || pos < 0 {
				return &ParseError{Field: fieldAllTitles, Key: title, Msg: "position must be a non-negative integer"}
			}
			var anchor *string
			if err := json.Unmarshal(ref[1], &anchor); err != nil {
				return &ParseError{Field: fieldAllTitles, Key: title, Msg: "anchor must be a string or null", Err: err}
			}
			if anchor == nil || *anchor == "" {
				continue
			}
			m := idx.sectionsFor(DocumentID(pos))
			if _, ok := m[*anchor]; !ok {
				m[*anchor] = title
			}
		}
	}
	return nil
}

func (idx *Index) sectionsFor(id DocumentID) map[string]string {
	m, ok := idx.sections[id]
	if !ok {
		m = map[string]string{}
		idx.sections[id] = m
	}
	return m
}

// parsePostings decodes one postings value: a list of positions, a single
// position, or a position → anchors mapping.
func parsePostings(v json.RawMessage) (Postings, error) {
	b := bytes.TrimSpace(v)
	if len(b) == 0 || isNull(b) {
		return nil, errors.New("postings must be a list, a mapping or a document position")
	}
	switch b[0] {
	case '[':
		var ids []int
		if err := json.Unmarshal(b, &ids); err != nil {
			return nil, err
		}
		out := make(SimplePostings, 0, len(ids))
		for _, id := range ids {
			if id < 0 {
				return nil, fmt.Errorf("negative document position %d", id)
			}
			out = append(out, DocumentID(id))
		}
		return out, nil
	case '{':
		var m map[string][]string
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		anchored := make(map[DocumentID][]string, len(m))
		for k, anchors := range m {
			id, err := parseDocKey(k)
			if err != nil {
				return nil, err
			}
			if anchors == nil {
				return nil, fmt.Errorf("anchors of document %d must be a list", id)
			}
			anchored[id] = anchors
		}
		return NewAnchoredPostings(anchored), nil
	default:
		var id int
		if err := json.Unmarshal(b, &id); err != nil {
			return nil, errors.New("postings must be a list, a mapping or a document position")
		}
		if id < 0 {
			return nil, fmt.Errorf("negative document position %d", id)
		}
		return SimplePostings{DocumentID(id)}, nil
	}
}

func parseDocKey(k string) (DocumentID, error) {
	n, err := strconv.Atoi(k)
	if err != nil {
		return 0, fmt.Errorf("document key %q is not an integer", k)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative document position %d", n)
	}
	return DocumentID(n), nil
}

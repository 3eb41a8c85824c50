package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Wrap emits the Search.setIndex(...) script instead of bare JSON.
	Wrap bool
	// Indent pretty-prints the JSON body.
	Indent bool
}

// Encode writes idx back out. Opaque fields (objects, objnames, objtypes,
// alltitles and anything unrecognized) are written exactly as they were read.
func Encode(w io.Writer, idx *Index, opts EncodeOptions) error {
	doc := make(map[string]any, 7+len(idx.opaque))
	for k, v := range idx.opaque {
		doc[k] = v
	}
	doc[fieldDocnames] = nonNil(idx.docnames)
	doc[fieldFilenames] = nonNil(idx.filenames)
	doc[fieldTitles] = nonNil(idx.titles)
	doc[fieldEnvVersion] = idx.env
	doc[fieldTerms] = idx.terms

	titleTerms := make(map[string]any, len(idx.titlePostings)+len(idx.titleSections))
	for word, p := range idx.titlePostings {
		titleTerms[word] = p
	}
	for id, anchors := range idx.titleSections {
		titleTerms[strconv.Itoa(int(id))] = anchors
	}
	doc[fieldTitleTerms] = titleTerms

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("cannot encode index: %w", err)
	}
	body := bytes.TrimRight(buf.Bytes(), "\n")

	bw := bufio.NewWriter(w)
	if opts.Wrap {
		bw.WriteString("Search.setIndex(")
		bw.Write(body)
		bw.WriteString(")")
	} else {
		bw.Write(body)
	}
	bw.WriteByte('\n')
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write index: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

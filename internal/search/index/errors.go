package index

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("malformed search index")
	// ErrOutOfRange is matched by every *OutOfRangeError.
	ErrOutOfRange = errors.New("document position out of range")
)

// ParseError reports raw input that does not have the shape of a search index.
// A ParseError from Load means no index was produced.
type ParseError struct {
	Field string // top-level field, empty for syntax errors
	Key   string // entry within Field, if any
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	where := "index"
	switch {
	case e.Field != "" && e.Key != "":
		where = fmt.Sprintf("%s[%q]", e.Field, e.Key)
	case e.Field != "":
		where = e.Field
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", where, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", where, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

// OutOfRangeError reports a document position outside [0, Len).
type OutOfRangeError struct {
	ID  DocumentID
	Len int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("document position %d out of range [0, %d)", e.ID, e.Len)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

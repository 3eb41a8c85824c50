package index

import (
	"bytes"
	"errors"
	"fmt"
)

var utf8BOM = []byte("\ufeff")

// unwrapSetIndex strips the Search.setIndex(...) call Sphinx writes around the
// index object. Input that already starts with an object or array is returned
// as-is.
func unwrapSetIndex(raw []byte) ([]byte, error) {
	b := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(b) == 0 || b[0] == '{' || b[0] == '[' {
		return b, nil
	}
	i := bytes.Index(b, []byte("setIndex("))
	if i < 0 {
		return b, nil
	}
	b = bytes.TrimSpace(b[i+len("setIndex("):])
	b = bytes.TrimSpace(bytes.TrimSuffix(b, []byte(";")))
	if !bytes.HasSuffix(b, []byte(")")) {
		return nil, errors.New("unterminated Search.setIndex call")
	}
	return bytes.TrimSpace(b[:len(b)-1]), nil
}

// literalToJSON rewrites a JavaScript object literal into JSON: bare
// identifier keys are quoted and single-quoted strings become double-quoted.
// Input that is already JSON passes through unchanged.
func literalToJSON(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src) + len(src)/8)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			n, err := copyString(&out, src[i:])
			if err != nil {
				return nil, fmt.Errorf("offset %d: %w", i, err)
			}
			i += n
		case c == '-' || isDigit(c):
			j := i + 1
			for j < len(src) && isNumberPart(src[j]) {
				j++
			}
			out.Write(src[i:j])
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			switch string(word) {
			case "true", "false", "null":
				out.Write(word)
			default:
				out.WriteByte('"')
				out.Write(word)
				out.WriteByte('"')
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes(), nil
}

// copyString writes the JS string literal at the start of src as a JSON string
// and returns the number of bytes consumed.
func copyString(out *bytes.Buffer, src []byte) (int, error) {
	quote := src[0]
	out.WriteByte('"')
	for i := 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == quote:
			out.WriteByte('"')
			return i + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return 0, errors.New("unterminated escape")
			}
			i++
			switch e := src[i]; e {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				out.WriteByte('\\')
				out.WriteByte(e)
			case '\'':
				out.WriteByte('\'')
			case 'v':
				out.WriteString(`\u000b`)
			case '0':
				out.WriteString(`\u0000`)
			case 'x':
				if i+2 >= len(src) || !isHex(src[i+1]) || !isHex(src[i+2]) {
					return 0, errors.New("invalid \\x escape")
				}
				out.WriteString(`\u00`)
				out.Write(src[i+1 : i+3])
				i += 2
			default:
				out.WriteByte(e)
			}
		case c == '"':
			out.WriteString(`\"`)
		case c < 0x20:
			fmt.Fprintf(out, `\u%04x`, c)
		default:
			out.WriteByte(c)
		}
	}
	return 0, errors.New("unterminated string")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNumberPart(c byte) bool {
	return isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

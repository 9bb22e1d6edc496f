// Package sexp implements a minimal s-expression reader.
//
// It covers the subset of Emacs Lisp syntax that appears in package
// metadata: symbols, keywords, strings, integers, proper lists, quote
// shorthand, and line comments. Values are returned as Go types:
//
//   - lists    -> []any
//   - strings  -> string
//   - integers -> int
//   - symbols  -> Symbol
//
// Quoted forms ('x) read as the two-element list (quote x), matching the
// reader behavior of the source format.
package sexp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Symbol is a lisp symbol or keyword (e.g. magit, :host).
type Symbol string

// Keyword reports whether the symbol is a keyword (leading colon).
func (s Symbol) Keyword() bool { return strings.HasPrefix(string(s), ":") }

// Name returns the symbol name without any leading colon.
func (s Symbol) Name() string { return strings.TrimPrefix(string(s), ":") }

// Quote is the symbol produced by the ' reader shorthand.
const Quote = Symbol("quote")

// SyntaxError describes a malformed s-expression.
type SyntaxError struct {
	Pos int    // Byte offset in the input
	Msg string // What went wrong
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sexp: %s at offset %d", e.Msg, e.Pos)
}

// Read parses the first s-expression in input and returns it along with
// the number of bytes consumed.
func Read(input string) (any, int, error) {
	r := &reader{src: input}
	r.skipSpace()
	if r.eof() {
		return nil, r.pos, &SyntaxError{Pos: r.pos, Msg: "empty input"}
	}
	v, err := r.read()
	if err != nil {
		return nil, r.pos, err
	}
	return v, r.pos, nil
}

// ReadAll parses every top-level s-expression in input.
func ReadAll(input string) ([]any, error) {
	r := &reader{src: input}
	var forms []any
	for {
		r.skipSpace()
		if r.eof() {
			return forms, nil
		}
		v, err := r.read()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
}

// Unquote strips a single (quote x) wrapper, if present.
func Unquote(v any) any {
	if list, ok := v.([]any); ok && len(list) == 2 {
		if sym, ok := list[0].(Symbol); ok && sym == Quote {
			return list[1]
		}
	}
	return v
}

type reader struct {
	src string
	pos int
}

func (r *reader) eof() bool { return r.pos >= len(r.src) }

func (r *reader) peek() byte { return r.src[r.pos] }

// skipSpace advances past whitespace and ; line comments.
func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.peek()
		switch {
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.pos++
			}
		case unicode.IsSpace(rune(c)):
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) read() (any, error) {
	r.skipSpace()
	if r.eof() {
		return nil, &SyntaxError{Pos: r.pos, Msg: "unexpected end of input"}
	}
	switch c := r.peek(); {
	case c == '(':
		return r.readList()
	case c == ')':
		return nil, &SyntaxError{Pos: r.pos, Msg: "unexpected )"}
	case c == '\'':
		r.pos++
		v, err := r.read()
		if err != nil {
			return nil, err
		}
		return []any{Quote, v}, nil
	case c == '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readList() (any, error) {
	start := r.pos
	r.pos++ // consume (
	var items []any
	for {
		r.skipSpace()
		if r.eof() {
			return nil, &SyntaxError{Pos: start, Msg: "unterminated list"}
		}
		if r.peek() == ')' {
			r.pos++
			// A nil slice would read back as the symbol nil; keep () distinct.
			if items == nil {
				items = []any{}
			}
			return items, nil
		}
		v, err := r.read()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (r *reader) readString() (any, error) {
	start := r.pos
	r.pos++ // consume opening quote
	var b strings.Builder
	for !r.eof() {
		c := r.peek()
		r.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if r.eof() {
				return nil, &SyntaxError{Pos: start, Msg: "unterminated string"}
			}
			esc := r.peek()
			r.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
	return nil, &SyntaxError{Pos: start, Msg: "unterminated string"}
}

// terminatesAtom reports whether c ends a bare atom.
func terminatesAtom(c byte) bool {
	return c == '(' || c == ')' || c == '"' || c == ';' || c == '\'' ||
		unicode.IsSpace(rune(c))
}

func (r *reader) readAtom() (any, error) {
	start := r.pos
	for !r.eof() && !terminatesAtom(r.peek()) {
		r.pos++
	}
	tok := r.src[start:r.pos]
	if n, err := strconv.Atoi(tok); err == nil {
		return n, nil
	}
	return Symbol(tok), nil
}

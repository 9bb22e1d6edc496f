package sexp

import (
	"reflect"
	"testing"
)

func TestReadAtoms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"symbol", "magit", Symbol("magit")},
		{"keyword", ":host", Symbol(":host")},
		{"string", `"user/repo"`, "user/repo"},
		{"integer", "42", 42},
		{"negative integer", "-7", -7},
		{"string with escape", `"a\"b"`, `a"b`},
		{"string with newline escape", `"a\nb"`, "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Read(tt.input)
			if err != nil {
				t.Fatalf("Read(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadLists(t *testing.T) {
	got, _, err := Read(`(dep1 "1.0")`)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	want := []any{Symbol("dep1"), "1.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read = %#v, want %#v", got, want)
	}

	got, _, err = Read(`((dep1 "1.0") (dep2 "2.0"))`)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	outer, ok := got.([]any)
	if !ok || len(outer) != 2 {
		t.Fatalf("Read = %#v, want list of 2", got)
	}

	// Empty list stays a list, not nil
	got, _, err = Read("()")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if l, ok := got.([]any); !ok || len(l) != 0 {
		t.Errorf("Read(()) = %#v, want empty list", got)
	}
}

func TestReadQuote(t *testing.T) {
	got, _, err := Read(`'((emacs "26.1"))`)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	list, ok := got.([]any)
	if !ok || len(list) != 2 || list[0] != Quote {
		t.Fatalf("Read = %#v, want quote form", got)
	}

	inner := Unquote(got)
	deps, ok := inner.([]any)
	if !ok || len(deps) != 1 {
		t.Fatalf("Unquote = %#v, want dep list", inner)
	}
}

func TestUnquotePassthrough(t *testing.T) {
	v := []any{Symbol("a"), Symbol("b"), Symbol("c")}
	if got := Unquote(v); !reflect.DeepEqual(got, v) {
		t.Errorf("Unquote(%#v) = %#v, want unchanged", v, got)
	}
}

func TestReadAllSkipsComments(t *testing.T) {
	input := `
;; header comment
(define-package "pkg" "1.0") ; trailing
(second)
`
	forms, err := ReadAll(input)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("ReadAll returned %d forms, want 2", len(forms))
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only comment", ";; nothing"},
		{"unterminated list", "(a b"},
		{"unterminated string", `"abc`},
		{"stray close", ")"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Read(tt.input); err == nil {
				t.Errorf("Read(%q) expected error, got nil", tt.input)
			}
		})
	}
}

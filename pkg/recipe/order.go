package recipe

import (
	"strings"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/sexp"
)

// Order is a user-supplied request describing which package to obtain and
// how. It is a closed variant: the only implementations are [NameOrder]
// and [SpecOrder]. A nil Order means "no order given" and is resolved by
// prompting, when a prompter is configured.
type Order interface {
	// PackageName returns the package identifier the order names.
	PackageName() string

	isOrder()
}

// NameOrder requests a package by bare name; the recipe comes entirely
// from the provider registry.
type NameOrder string

func (o NameOrder) PackageName() string { return string(o) }
func (NameOrder) isOrder()              {}

// SpecOrder requests a package with inline recipe overrides.
type SpecOrder struct {
	Name      string
	Overrides Props
}

func (o SpecOrder) PackageName() string { return o.Name }
func (SpecOrder) isOrder()              {}

// Recipe property keys recognized in orders and provider catalogs.
const (
	KeyPackage      = "package"
	KeyRepo         = "repo"
	KeyHost         = "host"
	KeyProtocol     = "protocol"
	KeyRemote       = "remote"
	KeyBranch       = "branch"
	KeyTag          = "tag"
	KeyRef          = "ref"
	KeyDepth        = "depth"
	KeyLocalRepo    = "local-repo"
	KeyInherit      = "inherit"
	KeyPreBuild     = "pre-build"
	KeyFork         = "fork"
	KeyNonrecursive = "nonrecursive"
)

var recognizedKeys = map[string]bool{
	KeyPackage:      true,
	KeyRepo:         true,
	KeyHost:         true,
	KeyProtocol:     true,
	KeyRemote:       true,
	KeyBranch:       true,
	KeyTag:          true,
	KeyRef:          true,
	KeyDepth:        true,
	KeyLocalRepo:    true,
	KeyInherit:      true,
	KeyPreBuild:     true,
	KeyFork:         true,
	KeyNonrecursive: true,
}

// ParseOrder parses a command-line order argument. A bare word is a
// package name; a parenthesized form is an inline specification:
//
//	magit
//	(magit :host github :repo "magit/magit" :branch "main")
//
// The inline form's first element is the package identifier and the rest
// is an alternating keyword/value override set. An odd-length override
// set, an unknown keyword, or a non-keyword in key position is a
// malformed order.
func ParseOrder(arg string) (Order, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, errors.New(errors.ErrCodeMalformedOrder, "empty order")
	}
	if !strings.HasPrefix(arg, "(") {
		if err := errors.ValidatePackageName(arg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedOrder, err, "invalid order %q", arg)
		}
		return NameOrder(arg), nil
	}

	form, _, err := sexp.Read(arg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedOrder, err, "unreadable order %q", arg)
	}
	list, ok := form.([]any)
	if !ok || len(list) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedOrder, "order %q is not a non-empty list", arg)
	}

	name, ok := symbolName(list[0])
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedOrder, "order %q does not start with a package name", arg)
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedOrder, err, "invalid order %q", arg)
	}

	overrides, err := parseOverrides(list[1:], arg)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return NameOrder(name), nil
	}
	return SpecOrder{Name: name, Overrides: overrides}, nil
}

// parseOverrides converts an alternating keyword/value element list to Props.
func parseOverrides(elems []any, arg string) (Props, error) {
	if len(elems)%2 != 0 {
		return nil, errors.New(errors.ErrCodeMalformedOrder,
			"order %q has an odd number of override elements", arg)
	}
	var props Props
	for i := 0; i < len(elems); i += 2 {
		sym, ok := elems[i].(sexp.Symbol)
		if !ok || !sym.Keyword() {
			return nil, errors.New(errors.ErrCodeMalformedOrder,
				"order %q: override key %v is not a keyword", arg, elems[i])
		}
		key := sym.Name()
		if !recognizedKeys[key] {
			return nil, errors.New(errors.ErrCodeMalformedOrder,
				"order %q: unrecognized keyword :%s", arg, key)
		}
		props = append(props, Prop{Key: key, Value: elems[i+1]})
	}
	return props, nil
}

// symbolName extracts a package name from a symbol or string element.
func symbolName(v any) (string, bool) {
	switch s := v.(type) {
	case sexp.Symbol:
		if s.Keyword() {
			return "", false
		}
		return string(s), true
	case string:
		return s, true
	}
	return "", false
}

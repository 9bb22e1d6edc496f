package recipe

import (
	"fmt"
	"sort"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/sexp"
)

// DefaultProtocol is the transfer protocol used when a recipe does not
// name one.
const DefaultProtocol = "https"

// DefaultRemote is the remote name git assigns on clone; recipes that do
// not configure remotes keep it.
const DefaultRemote = "origin"

// Remote describes one named git remote. A Remote with no overrides set
// is a rename of origin; a Remote with repo/host/protocol overrides is
// added as a new remote at the override-derived URI.
type Remote struct {
	Name     string `json:"name"`
	Repo     string `json:"repo,omitempty"`
	Host     string `json:"host,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// HasOverrides reports whether the remote carries explicit addressing
// overrides (and therefore denotes an added remote, not a rename).
func (r Remote) HasOverrides() bool {
	return r.Repo != "" || r.Host != "" || r.Protocol != ""
}

// Recipe is the fully merged, validated description of how to fetch and
// check out one package. Recipes are immutable value objects once
// resolved; the JSON tags exist so a recipe can be handed to a worker
// process verbatim.
type Recipe struct {
	Package      string   `json:"package"`
	Repo         string   `json:"repo,omitempty"`
	Host         string   `json:"host,omitempty"`
	Protocol     string   `json:"protocol,omitempty"` // empty means DefaultProtocol
	Remotes      []Remote `json:"remotes,omitempty"`  // empty means DefaultRemote, untouched
	Ref          string   `json:"ref,omitempty"`
	Branch       string   `json:"branch,omitempty"`
	Tag          string   `json:"tag,omitempty"`
	Depth        int      `json:"depth,omitempty"` // 0 means full history
	LocalRepo    string   `json:"local-repo,omitempty"`
	Inherit      *bool    `json:"inherit,omitempty"`
	PreBuild     []string `json:"pre-build,omitempty"`
	Fork         *Remote  `json:"fork,omitempty"`
	Nonrecursive bool     `json:"nonrecursive,omitempty"`
}

// EffectiveProtocol returns the recipe's protocol, defaulting to https.
func (r *Recipe) EffectiveProtocol() string {
	if r.Protocol == "" {
		return DefaultProtocol
	}
	return r.Protocol
}

// FirstRemote returns the name of the remote that branch checkouts track:
// the first configured remote, or origin when none are configured.
func (r *Recipe) FirstRemote() string {
	if len(r.Remotes) > 0 {
		return r.Remotes[0].Name
	}
	return DefaultRemote
}

// ValidateRefSpec enforces the ref/branch/tag precedence rule: at most one
// of the three is authoritative. A ref alongside a branch or tag yields a
// non-fatal warning (ref wins); a tag together with a branch and no ref is
// an ambiguous spec and a hard error.
func (r *Recipe) ValidateRefSpec() (warning string, err error) {
	if r.Ref != "" {
		if r.Branch != "" || r.Tag != "" {
			return fmt.Sprintf("recipe for %s: ref %q overrides branch/tag", r.Package, r.Ref), nil
		}
		return "", nil
	}
	if r.Tag != "" && r.Branch != "" {
		return "", errors.New(errors.ErrCodeAmbiguousRefSpec,
			"recipe for %s specifies both tag %q and branch %q with no ref", r.Package, r.Tag, r.Branch)
	}
	return "", nil
}

// FromProps builds a Recipe from a merged property set, validating every
// field at construction. Unknown keys and wrongly typed values are
// malformed orders.
func FromProps(props Props) (*Recipe, error) {
	rec := &Recipe{}
	for _, kv := range props {
		if err := rec.setField(kv.Key, kv.Value); err != nil {
			return nil, err
		}
	}
	if rec.Package != "" {
		if err := errors.ValidatePackageName(rec.Package); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedOrder, err, "recipe %v", props)
		}
	}
	return rec, nil
}

func (rec *Recipe) setField(key string, value any) error {
	switch key {
	case KeyPackage:
		return assignString(&rec.Package, key, value)
	case KeyRepo:
		return assignString(&rec.Repo, key, value)
	case KeyHost:
		return assignString(&rec.Host, key, value)
	case KeyProtocol:
		return assignString(&rec.Protocol, key, value)
	case KeyBranch:
		return assignString(&rec.Branch, key, value)
	case KeyTag:
		return assignString(&rec.Tag, key, value)
	case KeyRef:
		return assignString(&rec.Ref, key, value)
	case KeyLocalRepo:
		return assignString(&rec.LocalRepo, key, value)
	case KeyDepth:
		n, ok := asInt(value)
		if !ok {
			return badValue(key, value)
		}
		rec.Depth = n
	case KeyInherit:
		b, ok := asBool(value)
		if !ok {
			return badValue(key, value)
		}
		rec.Inherit = &b
	case KeyNonrecursive:
		b, ok := asBool(value)
		if !ok {
			return badValue(key, value)
		}
		rec.Nonrecursive = b
	case KeyPreBuild:
		cmd, ok := asCommand(value)
		if !ok {
			return badValue(key, value)
		}
		rec.PreBuild = cmd
	case KeyRemote:
		remotes, err := parseRemotes(value)
		if err != nil {
			return err
		}
		rec.Remotes = remotes
	case KeyFork:
		fork, err := parseFork(value)
		if err != nil {
			return err
		}
		rec.Fork = fork
	default:
		return errors.New(errors.ErrCodeMalformedOrder, "unrecognized recipe key %q", key)
	}
	return nil
}

// parseRemotes accepts the remote-spec shapes: a single name (rename of
// origin), or a list whose entries are names or (name :key value ...)
// sublists / tables with addressing overrides.
func parseRemotes(value any) ([]Remote, error) {
	if name, ok := asString(value); ok {
		return []Remote{{Name: name}}, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, invalidRemote(value)
	}
	var remotes []Remote
	for _, entry := range list {
		r, err := parseRemoteEntry(entry)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, r)
	}
	if len(remotes) == 0 {
		return nil, invalidRemote(value)
	}
	return remotes, nil
}

func parseRemoteEntry(entry any) (Remote, error) {
	if name, ok := asString(entry); ok {
		return Remote{Name: name}, nil
	}
	switch e := entry.(type) {
	case []any:
		// (name :repo "..." :host ...) — name followed by keyword pairs
		if len(e) == 0 || (len(e)-1)%2 != 0 {
			return Remote{}, invalidRemote(entry)
		}
		name, ok := asString(e[0])
		if !ok {
			return Remote{}, invalidRemote(entry)
		}
		r := Remote{Name: name}
		for i := 1; i < len(e); i += 2 {
			sym, ok := e[i].(sexp.Symbol)
			if !ok || !sym.Keyword() {
				return Remote{}, invalidRemote(entry)
			}
			val, ok := asString(e[i+1])
			if !ok {
				return Remote{}, invalidRemote(entry)
			}
			switch sym.Name() {
			case KeyRepo:
				r.Repo = val
			case KeyHost:
				r.Host = val
			case KeyProtocol:
				r.Protocol = val
			default:
				return Remote{}, invalidRemote(entry)
			}
		}
		return r, nil
	case map[string]any:
		// TOML table form: {name = "...", repo = "...", ...}
		r := Remote{}
		for _, k := range sortedKeys(e) {
			val, ok := asString(e[k])
			if !ok {
				return Remote{}, invalidRemote(entry)
			}
			switch k {
			case "name":
				r.Name = val
			case KeyRepo:
				r.Repo = val
			case KeyHost:
				r.Host = val
			case KeyProtocol:
				r.Protocol = val
			default:
				return Remote{}, invalidRemote(entry)
			}
		}
		if r.Name == "" {
			return Remote{}, invalidRemote(entry)
		}
		return r, nil
	}
	return Remote{}, invalidRemote(entry)
}

// parseFork accepts a remote name, a repo override, or a full remote
// entry. A repo override is recognized by containing a slash.
func parseFork(value any) (*Remote, error) {
	if s, ok := asString(value); ok {
		if containsSlash(s) {
			return &Remote{Name: "fork", Repo: s}, nil
		}
		return &Remote{Name: s}, nil
	}
	r, err := parseRemoteEntry(value)
	if err != nil {
		return nil, err
	}
	if r.Name == "" {
		r.Name = "fork"
	}
	return &r, nil
}

func invalidRemote(v any) error {
	return errors.New(errors.ErrCodeInvalidRemoteSpec, "unrecognized remote spec %v", v)
}

func badValue(key string, value any) error {
	return errors.New(errors.ErrCodeMalformedOrder, "recipe key %q has invalid value %v (%T)", key, value, value)
}

// Value coercions. Properties arrive from two front ends with different
// concrete types: the sexp reader (Symbol, string, int, []any) and TOML
// catalogs (string, int64, bool, []any, map[string]any).

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case sexp.Symbol:
		if s.Keyword() {
			return "", false
		}
		return string(s), true
	}
	return "", false
}

func assignString(dst *string, key string, value any) error {
	s, ok := asString(value)
	if !ok {
		return badValue(key, value)
	}
	*dst = s
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case sexp.Symbol:
		switch b {
		case "t":
			return true, true
		case "nil":
			return false, true
		}
	}
	return false, false
}

// asCommand coerces a pre-build value: a single string runs through the
// shell, a list of strings is an argv vector.
func asCommand(v any) ([]string, bool) {
	if s, ok := asString(v); ok {
		return []string{"sh", "-c", s}, true
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	argv := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := asString(e)
		if !ok {
			return nil, false
		}
		argv = append(argv, s)
	}
	return argv, true
}

func containsSlash(s string) bool {
	for _, c := range s {
		if c == '/' {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package scan extracts a package's declared dependency list from its
// materialized repository. It reads either the structured package
// description file (<package>-pkg.el) or, failing that, the declared
// requirements header comment of the package's main source file.
package scan

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/gitrepo"
	"github.com/joist-el/joist/pkg/recipe"
	"github.com/joist-el/joist/pkg/sexp"
)

// Dependency is one declared requirement: a package identifier and a
// minimum version constraint. The identifier may denote the host runtime
// itself, which callers treat specially.
type Dependency struct {
	Name       string
	MinVersion string // empty when the declaration carries no version
}

// requiresHeader matches the declared-requirements metadata line, e.g.
//
//	;; Package-Requires: ((dash "2.19") (emacs "26.1"))
//	;; Requires: ((dep1 "1.0"))
var requiresHeader = regexp.MustCompile(`(?i)^;;+\s*(?:package-)?requires\s*:\s*(\(.*\))\s*$`)

// Scanner reads dependency declarations from repositories under the
// package store.
type Scanner struct {
	Store  string
	Logger *log.Logger
}

// NewScanner creates a Scanner over the given package store.
func NewScanner(store string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{Store: store, Logger: logger}
}

// Dependencies returns the recipe's declared dependency list. The
// repository must already exist on disk. The description file wins over
// the header comment; a package declaring neither has no dependencies.
func (s *Scanner) Dependencies(rec *recipe.Recipe) ([]Dependency, error) {
	dir, err := gitrepo.Path(s.Store, rec)
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeRepoNotFound,
			"repository for %s not found at %s", rec.Package, dir)
	}

	descPath := filepath.Join(dir, rec.Package+"-pkg.el")
	if _, statErr := os.Stat(descPath); statErr == nil {
		return s.fromDescription(rec, descPath)
	}

	mainPath := filepath.Join(dir, rec.Package+".el")
	if _, statErr := os.Stat(mainPath); statErr == nil {
		return s.fromHeader(rec, mainPath)
	}

	s.Logger.Debug("no dependency metadata", "package", rec.Package)
	return nil, nil
}

// fromDescription parses the package description file. Its define form's
// fifth element, evaluated, is the dependency list.
func (s *Scanner) fromDescription(rec *recipe.Recipe, path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyParse, err, "reading %s", path)
	}
	forms, err := sexp.ReadAll(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyParse, err, "parsing %s", path)
	}
	if len(forms) == 0 {
		return nil, errors.New(errors.ErrCodeDependencyParse, "%s contains no forms", path)
	}
	define, ok := forms[0].([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeDependencyParse, "%s: first form is not a list", path)
	}
	if len(define) < 5 {
		// A define form with no requirements argument declares nothing.
		return nil, nil
	}
	deps, err := parseDependencyList(sexp.Unquote(define[4]))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyParse, err, "dependency list in %s", path)
	}
	return deps, nil
}

// fromHeader scans the main source file for the requirements header and
// parses its captured expression.
func (s *Scanner) fromHeader(rec *recipe.Recipe, path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyParse, err, "reading %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := requiresHeader.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		form, _, err := sexp.Read(m[1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDependencyParse, err,
				"requirements header of %s: %q", rec.Package, strings.TrimSpace(m[1]))
		}
		deps, err := parseDependencyList(form)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDependencyParse, err,
				"requirements header of %s", rec.Package)
		}
		return deps, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyParse, err, "reading %s", path)
	}
	return nil, nil
}

// parseDependencyList converts a parsed ((name "version") ...) form into
// dependencies. A bare symbol entry declares a dependency with no
// version constraint.
func parseDependencyList(form any) ([]Dependency, error) {
	list, ok := form.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeDependencyParse, "dependency list is %T, not a list", form)
	}
	var deps []Dependency
	for _, entry := range list {
		switch e := entry.(type) {
		case sexp.Symbol:
			deps = append(deps, Dependency{Name: string(e)})
		case []any:
			if len(e) == 0 || len(e) > 2 {
				return nil, errors.New(errors.ErrCodeDependencyParse, "malformed dependency entry %v", e)
			}
			name, ok := e[0].(sexp.Symbol)
			if !ok {
				return nil, errors.New(errors.ErrCodeDependencyParse, "dependency name %v is not a symbol", e[0])
			}
			dep := Dependency{Name: string(name)}
			if len(e) == 2 {
				version, ok := e[1].(string)
				if !ok {
					return nil, errors.New(errors.ErrCodeDependencyParse, "dependency version %v is not a string", e[1])
				}
				dep.MinVersion = version
			}
			deps = append(deps, dep)
		default:
			return nil, errors.New(errors.ErrCodeDependencyParse, "malformed dependency entry %v (%T)", entry, entry)
		}
	}
	return deps, nil
}

package gitrepo

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/execx"
	"github.com/joist-el/joist/pkg/recipe"
)

// Manager performs repository operations for recipes under a package
// store directory. All operations shell out to git through the Runner.
type Manager struct {
	Store  string
	Runner execx.Runner
	Logger *log.Logger
}

// NewManager creates a Manager rooted at store.
func NewManager(store string, runner execx.Runner, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{Store: store, Runner: runner, Logger: logger}
}

// Path returns the repository directory for a recipe.
func (m *Manager) Path(rec *recipe.Recipe) (string, error) {
	return Path(m.Store, rec)
}

// Exists reports whether the recipe's repository directory is present.
func (m *Manager) Exists(rec *recipe.Recipe) bool {
	path, err := m.Path(rec)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Clone clones the addressed URI into the addressed path. A recipe with
// no resolved host cannot be addressed.
func (m *Manager) Clone(ctx context.Context, rec *recipe.Recipe) error {
	if rec.Host == "" {
		return errors.New(errors.ErrCodeMissingHost, "recipe for %s resolves no host: %+v", rec.Package, rec)
	}
	uri, err := URI(rec)
	if err != nil {
		return err
	}
	path, err := m.Path(rec)
	if err != nil {
		return err
	}

	args := []string{"clone"}
	if rec.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(rec.Depth))
	}
	if !rec.Nonrecursive {
		args = append(args, "--recurse-submodules")
	}
	args = append(args, uri, path)

	m.Logger.Debug("cloning", "package", rec.Package, "uri", uri, "path", path)
	res, err := m.Runner.Run(ctx, "", "git", args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCloneFailed, err, "cloning %s from %s", rec.Package, uri)
	}
	if !res.Success() {
		return errors.New(errors.ErrCodeCloneFailed, "cloning %s from %s: %s", rec.Package, uri, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ConfigureRemotes applies the recipe's remote specifications. The
// default single origin is a no-op; a rename entry renames origin; an
// entry with addressing overrides adds a new remote at the
// override-derived URI. The fork remote, when present, is added last.
func (m *Manager) ConfigureRemotes(ctx context.Context, rec *recipe.Recipe) error {
	path, err := m.Path(rec)
	if err != nil {
		return err
	}

	for _, r := range rec.Remotes {
		if r.Name == "" {
			return errors.New(errors.ErrCodeInvalidRemoteSpec, "remote with no name in recipe for %s", rec.Package)
		}
		if r.HasOverrides() {
			if err := m.addRemote(ctx, path, rec, r); err != nil {
				return err
			}
			continue
		}
		if r.Name == recipe.DefaultRemote {
			continue
		}
		if err := m.renameOrigin(ctx, path, rec, r.Name); err != nil {
			return err
		}
	}

	if rec.Fork != nil {
		fork := *rec.Fork
		if !fork.HasOverrides() {
			return errors.New(errors.ErrCodeInvalidRemoteSpec,
				"fork remote %q for %s carries no addressing overrides", fork.Name, rec.Package)
		}
		if err := m.addRemote(ctx, path, rec, fork); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) addRemote(ctx context.Context, path string, rec *recipe.Recipe, r recipe.Remote) error {
	uri, err := RemoteURI(rec, r)
	if err != nil {
		return err
	}
	res, err := m.Runner.Run(ctx, path, "git", "remote", "add", r.Name, uri)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRemoteSpec, err, "adding remote %s for %s", r.Name, rec.Package)
	}
	if !res.Success() {
		return errors.New(errors.ErrCodeInvalidRemoteSpec,
			"adding remote %s for %s: %s", r.Name, rec.Package, strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (m *Manager) renameOrigin(ctx context.Context, path string, rec *recipe.Recipe, name string) error {
	res, err := m.Runner.Run(ctx, path, "git", "remote", "rename", recipe.DefaultRemote, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRemoteSpec, err, "renaming origin to %s for %s", name, rec.Package)
	}
	if !res.Success() {
		return errors.New(errors.ErrCodeInvalidRemoteSpec,
			"renaming origin to %s for %s: %s", name, rec.Package, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// CheckoutRef checks out the revision the recipe selects. With none of
// ref, branch, or tag present it is a no-op. Precedence: ref wins over
// branch and tag with a warning; tag plus branch with no ref is
// ambiguous and fails.
func (m *Manager) CheckoutRef(ctx context.Context, rec *recipe.Recipe) error {
	if rec.Ref == "" && rec.Branch == "" && rec.Tag == "" {
		return nil
	}

	warning, err := rec.ValidateRefSpec()
	if err != nil {
		return err
	}
	if warning != "" {
		m.Logger.Warn(warning)
	}

	path, err := m.Path(rec)
	if err != nil {
		return err
	}

	remotes, err := m.listRemotes(ctx, path)
	if err != nil {
		return err
	}
	if len(remotes) == 0 {
		return errors.New(errors.ErrCodeMissingRemote, "repository for %s has no configured remotes", rec.Package)
	}

	if res, err := m.Runner.Run(ctx, path, "git", "fetch", "--all"); err != nil {
		return errors.Wrap(errors.ErrCodeCheckoutFailed, err, "fetching remotes for %s", rec.Package)
	} else if !res.Success() {
		return errors.New(errors.ErrCodeCheckoutFailed,
			"fetching remotes for %s: %s", rec.Package, strings.TrimSpace(res.Stderr))
	}

	var args []string
	switch {
	case rec.Ref != "":
		args = []string{"checkout", rec.Ref}
	case rec.Tag != "":
		args = []string{"checkout", "refs/tags/" + rec.Tag}
	default:
		args = []string{"switch", "-C", rec.Branch, "--track", rec.FirstRemote() + "/" + rec.Branch}
	}

	res, err := m.Runner.Run(ctx, path, "git", args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCheckoutFailed, err, "checking out %s", rec.Package)
	}
	if !res.Success() {
		return errors.New(errors.ErrCodeCheckoutFailed,
			"checking out %s (%s): %s", rec.Package, res.CommandLine(), strings.TrimSpace(res.Stderr))
	}
	return nil
}

// listRemotes returns the repository's configured remote names.
func (m *Manager) listRemotes(ctx context.Context, path string) ([]string, error) {
	res, err := m.Runner.Run(ctx, path, "git", "remote")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "listing remotes in %s", path)
	}
	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Initialize materializes the recipe's repository: clone, remote
// configuration, then checkout, in that order.
func (m *Manager) Initialize(ctx context.Context, rec *recipe.Recipe) error {
	if err := m.Clone(ctx, rec); err != nil {
		return err
	}
	if err := m.ConfigureRemotes(ctx, rec); err != nil {
		return err
	}
	return m.CheckoutRef(ctx, rec)
}

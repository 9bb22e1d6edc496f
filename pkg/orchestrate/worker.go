package orchestrate

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/execx"
	"github.com/joist-el/joist/pkg/gitrepo"
	"github.com/joist-el/joist/pkg/recipe"
)

// Worker materializes one package's repository.
type Worker interface {
	Fetch(ctx context.Context, rec *recipe.Recipe) error
}

// DefaultTimeout bounds a single fetch job.
const DefaultTimeout = 15 * time.Minute

// InProcessWorker fetches a package inside the current process: clone,
// remote configuration, checkout, then any pre-build commands run in the
// repository directory.
type InProcessWorker struct {
	Manager *gitrepo.Manager
	Runner  execx.Runner
	Logger  *log.Logger
}

// NewInProcessWorker creates a worker over the given repository manager.
func NewInProcessWorker(manager *gitrepo.Manager, runner execx.Runner, logger *log.Logger) *InProcessWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &InProcessWorker{Manager: manager, Runner: runner, Logger: logger}
}

// Fetch materializes the recipe's repository and runs its pre-build
// commands. A repository already present on disk is left untouched.
func (w *InProcessWorker) Fetch(ctx context.Context, rec *recipe.Recipe) error {
	if w.Manager.Exists(rec) {
		w.Logger.Debug("repository already present", "package", rec.Package)
		return nil
	}
	if err := w.Manager.Initialize(ctx, rec); err != nil {
		return err
	}
	return w.preBuild(ctx, rec)
}

func (w *InProcessWorker) preBuild(ctx context.Context, rec *recipe.Recipe) error {
	if len(rec.PreBuild) == 0 {
		return nil
	}
	dir, err := w.Manager.Path(rec)
	if err != nil {
		return err
	}
	w.Logger.Debug("running pre-build", "package", rec.Package, "command", rec.PreBuild)
	res, err := w.Runner.Run(ctx, dir, rec.PreBuild[0], rec.PreBuild[1:]...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "pre-build for %s", rec.Package)
	}
	if !res.Success() {
		return errors.New(errors.ErrCodeInternal,
			"pre-build for %s exited %d: %s", rec.Package, res.ExitCode, res.Stderr)
	}
	return nil
}

// SubprocessWorker fetches a package by re-invoking the running binary
// in a hidden worker mode, so a hung or crashed fetch cannot take the
// orchestrator down with it. The recipe is handed over through a
// temporary JSON file.
type SubprocessWorker struct {
	// Binary is the executable to invoke; defaults to the current one.
	Binary string

	// Args precede the recipe file path, naming the worker entry point.
	Args []string

	// Store is passed through so the child resolves the same paths and
	// the parent can roll back a failed clone.
	Store string

	// Timeout bounds each job; zero means DefaultTimeout.
	Timeout time.Duration

	Runner execx.Runner
	Logger *log.Logger
}

// NewSubprocessWorker creates a worker that re-invokes the current
// executable with the given entry-point arguments.
func NewSubprocessWorker(store string, args []string, runner execx.Runner, logger *log.Logger) (*SubprocessWorker, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "locating own executable")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SubprocessWorker{
		Binary:  bin,
		Args:    args,
		Store:   store,
		Timeout: DefaultTimeout,
		Runner:  runner,
		Logger:  logger,
	}, nil
}

// Fetch runs the worker subprocess and waits for it within the timeout.
// If the job fails and the repository directory did not exist before the
// job started, the partial clone is removed.
func (w *SubprocessWorker) Fetch(ctx context.Context, rec *recipe.Recipe) error {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	repoPath, err := gitrepo.Path(w.Store, rec)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(repoPath)
	preExisting := statErr == nil

	recipeFile, err := writeRecipeFile(rec)
	if err != nil {
		return err
	}
	defer os.Remove(recipeFile)

	args := append(append([]string{}, w.Args...), recipeFile)
	res, err := w.Runner.Run(ctx, "", w.Binary, args...)
	if err == nil && res.Success() {
		return nil
	}

	if !preExisting {
		// The job may have left a partial clone behind; discard it so a
		// retry starts clean. Best effort only.
		if rmErr := os.RemoveAll(repoPath); rmErr != nil {
			w.Logger.Warn("could not remove partial repository",
				"package", rec.Package, "path", repoPath, "error", rmErr)
		}
	}
	if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
		return errors.New(errors.ErrCodeCloneFailed,
			"fetch of %s timed out after %s", rec.Package, timeout)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "fetch worker for %s", rec.Package)
	}
	return errors.New(errors.ErrCodeCloneFailed,
		"fetch worker for %s exited %d: %s", rec.Package, res.ExitCode, res.Stderr)
}

// writeRecipeFile serializes a recipe to a temp file for the worker
// subprocess and returns its path.
func writeRecipeFile(rec *recipe.Recipe) (string, error) {
	f, err := os.CreateTemp("", "joist-recipe-*.json")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "creating recipe file")
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(rec); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "writing recipe file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrap(errors.ErrCodeInternal, err, "writing recipe file")
	}
	return f.Name(), nil
}

// ReadRecipeFile loads a recipe written by writeRecipeFile. The worker
// entry point uses it to recover the recipe handed over by the parent.
func ReadRecipeFile(path string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading recipe file %s", path)
	}
	var rec recipe.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing recipe file %s", path)
	}
	return &rec, nil
}

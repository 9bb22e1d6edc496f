// Package orchestrate coordinates asynchronous package installation.
//
// An Orchestrator accepts orders, resolves each one to a recipe, and
// dispatches a fetch worker per package. Completed fetches are scanned
// for declared dependencies, which are submitted back into the
// orchestrator, so a single top-level order pulls in its whole closure.
// Every package is dispatched at most once per run regardless of how
// many dependents request it.
package orchestrate

import (
	"context"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/observability"
	"github.com/joist-el/joist/pkg/recipe"
	"github.com/joist-el/joist/pkg/scan"
)

// Orchestrator runs package fetches concurrently with deduplication.
// Configure the exported fields before the first Submit; they must not
// change afterwards.
type Orchestrator struct {
	Resolver *recipe.Resolver
	Worker   Worker
	Scanner  *scan.Scanner

	// HostName identifies the runtime package that dependency lists may
	// require a minimum version of. It is checked, never fetched.
	HostName    string
	HostVersion *semver.Version // nil skips the check

	// Ignore lists packages that are never fetched and never treated as
	// missing dependencies (typically ones bundled with the runtime).
	Ignore map[string]bool

	Logger *log.Logger

	mu         sync.Mutex
	dispatched map[string]string // package -> in-flight job id
	completed  map[string]bool
	failures   map[string]error
	wg         sync.WaitGroup
}

// New creates an Orchestrator with empty dispatch state.
func New(resolver *recipe.Resolver, worker Worker, scanner *scan.Scanner, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		Resolver:   resolver,
		Worker:     worker,
		Scanner:    scanner,
		Logger:     logger,
		dispatched: make(map[string]string),
		completed:  make(map[string]bool),
		failures:   make(map[string]error),
	}
}

// Submit resolves an order and dispatches a fetch job for it, returning
// the job id. A package already dispatched or completed in this run is
// not dispatched again; the id of the original job is returned with
// ok=false. Ignored packages return ok=false with an empty id.
func (o *Orchestrator) Submit(ctx context.Context, order recipe.Order) (id string, ok bool, err error) {
	rec, err := o.Resolver.Resolve(ctx, order)
	if err != nil {
		return "", false, err
	}
	pkg := rec.Package
	if o.Ignore[pkg] {
		o.Logger.Debug("package ignored", "package", pkg)
		return "", false, nil
	}

	o.mu.Lock()
	if existing, inFlight := o.dispatched[pkg]; inFlight {
		o.mu.Unlock()
		return existing, false, nil
	}
	if o.completed[pkg] {
		o.mu.Unlock()
		return "", false, nil
	}
	id = uuid.NewString()
	o.dispatched[pkg] = id
	o.wg.Add(1)
	o.mu.Unlock()

	o.Logger.Info("fetching", "package", pkg, "job", id)
	go o.run(ctx, id, rec)
	return id, true, nil
}

// run executes one fetch job and expands its dependencies on success.
func (o *Orchestrator) run(ctx context.Context, id string, rec *recipe.Recipe) {
	defer o.wg.Done()

	pkg := rec.Package
	observability.Fetch().OnFetchStart(ctx, pkg)
	start := time.Now()
	err := o.Worker.Fetch(ctx, rec)
	observability.Fetch().OnFetchComplete(ctx, pkg, time.Since(start), err)

	o.mu.Lock()
	delete(o.dispatched, pkg)
	o.completed[pkg] = true
	if err != nil {
		o.failures[pkg] = err
	}
	o.mu.Unlock()

	if err != nil {
		o.Logger.Error("fetch failed", "package", pkg, "error", err)
		return
	}
	o.Logger.Debug("fetch complete", "package", pkg, "duration", time.Since(start))
	o.expand(ctx, rec)
}

// expand scans a fetched package's dependencies and submits the missing
// ones. Scan and resolution errors are recorded as failures; they do not
// stop other jobs.
func (o *Orchestrator) expand(ctx context.Context, rec *recipe.Recipe) {
	deps, err := o.Scanner.Dependencies(rec)
	if err != nil {
		o.recordFailure(rec.Package, err)
		return
	}
	observability.Fetch().OnDependenciesFound(ctx, rec.Package, len(deps))

	for _, dep := range deps {
		if o.Ignore[dep.Name] {
			continue
		}
		if dep.Name == o.HostName {
			if err := o.checkHost(dep); err != nil {
				o.recordFailure(rec.Package, err)
			}
			continue
		}
		if _, _, err := o.Submit(ctx, recipe.NameOrder(dep.Name)); err != nil {
			o.recordFailure(dep.Name, err)
		}
	}
}

// checkHost verifies the runtime satisfies a dependency's minimum
// version. An unknown host version passes with a warning.
func (o *Orchestrator) checkHost(dep scan.Dependency) error {
	if dep.MinVersion == "" {
		return nil
	}
	if o.HostVersion == nil {
		o.Logger.Warn("host version unknown, skipping check",
			"host", o.HostName, "required", dep.MinVersion)
		return nil
	}
	min, err := semver.NewVersion(dep.MinVersion)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDependencyParse, err,
			"invalid %s version requirement %q", o.HostName, dep.MinVersion)
	}
	if o.HostVersion.LessThan(min) {
		return errors.New(errors.ErrCodeHostVersionTooLow,
			"%s %s required, have %s", o.HostName, dep.MinVersion, o.HostVersion)
	}
	return nil
}

func (o *Orchestrator) recordFailure(pkg string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.failures[pkg]; !exists {
		o.failures[pkg] = err
	}
}

// InFlight returns the number of jobs currently dispatched.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.dispatched)
}

// Completed returns the names of packages whose jobs have finished,
// successfully or not.
func (o *Orchestrator) Completed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	pkgs := make([]string, 0, len(o.completed))
	for pkg := range o.completed {
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// Wait blocks until every dispatched job, including ones spawned by
// dependency expansion, has finished. It returns the per-package
// failures accumulated during the run; an empty map means full success.
func (o *Orchestrator) Wait() map[string]error {
	o.wg.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
	failures := make(map[string]error, len(o.failures))
	for pkg, err := range o.failures {
		failures[pkg] = err
	}
	return failures
}

// Package provider implements catalog providers: sources of candidate
// package recipes. A provider answers two requests — index (its full
// candidate set) and update (refresh its internal candidate cache).
//
// The [Registry] holds an ordered provider list and is the resolver's
// catalog: lookups consult providers in order and the first candidate
// wins, while the combined candidate listing is the union of all
// providers' indexes sorted by package name.
package provider

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/recipe"
)

// Provider supplies candidate package recipes from one catalog source.
type Provider interface {
	// Name identifies the provider in listings and logs.
	Name() string

	// Index returns the provider's full candidate set, keyed by package
	// name.
	Index(ctx context.Context) (map[string]recipe.Props, error)

	// Update refreshes the provider's internal candidate cache. There is
	// no return contract beyond the error.
	Update(ctx context.Context) error
}

// Candidate pairs a package recipe with the provider that supplied it.
type Candidate struct {
	Package string
	Source  string // provider name
	Recipe  recipe.Props
}

// Registry is an ordered list of providers.
type Registry struct {
	providers []Provider
	logger    *log.Logger
}

// NewRegistry creates a registry over the given providers, queried in the
// given order.
func NewRegistry(logger *log.Logger, providers ...Provider) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{providers: providers, logger: logger}
}

// Providers returns the registered providers in query order.
func (r *Registry) Providers() []Provider { return r.providers }

// Lookup finds the first provider candidate for name. It implements
// [recipe.Catalog]. A provider error fails the lookup rather than falling
// through, so a flaky provider cannot silently shadow its candidates.
func (r *Registry) Lookup(ctx context.Context, name string) (recipe.Props, bool, error) {
	for _, p := range r.providers {
		index, err := p.Index(ctx)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeProvider, err, "provider %s", p.Name())
		}
		if props, ok := index[name]; ok {
			return props, true, nil
		}
	}
	return nil, false, nil
}

// Candidates returns the union of all providers' indexes, sorted
// lexicographically by package name. When two providers carry the same
// package, the earlier provider wins.
func (r *Registry) Candidates(ctx context.Context) ([]Candidate, error) {
	seen := make(map[string]bool)
	var out []Candidate
	for _, p := range r.providers {
		index, err := p.Index(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeProvider, err, "provider %s", p.Name())
		}
		for name, props := range index {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, Candidate{Package: name, Source: p.Name(), Recipe: props})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out, nil
}

// UpdateAll refreshes every provider concurrently and returns the first
// error encountered.
func (r *Registry) UpdateAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range r.providers {
		p := p
		g.Go(func() error {
			if err := p.Update(ctx); err != nil {
				return errors.Wrap(errors.ErrCodeProvider, err, "updating provider %s", p.Name())
			}
			r.logger.Debug("provider updated", "provider", p.Name())
			return nil
		})
	}
	return g.Wait()
}

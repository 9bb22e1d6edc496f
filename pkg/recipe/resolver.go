package recipe

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/joist-el/joist/pkg/errors"
)

// Catalog supplies base recipe property sets for package names. The
// provider registry implements it.
type Catalog interface {
	// Lookup returns the property set for the named package, with found
	// reporting whether any provider carries a candidate.
	Lookup(ctx context.Context, name string) (props Props, found bool, err error)
}

// Prompter obtains an order interactively when none was supplied.
type Prompter func(ctx context.Context) (Order, error)

// Resolver turns orders into fully merged recipes by consulting the
// catalog and applying the two-stage modification hook system: order
// hooks adjust override sets before merging (so cross-cutting policy
// applies under explicit overrides), recipe hooks adjust the merged
// result afterwards.
type Resolver struct {
	Catalog     Catalog
	OrderHooks  []OrderHook
	RecipeHooks []RecipeHook
	Prompt      Prompter // optional; consulted for nil orders
	Logger      *log.Logger
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(catalog Catalog, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{Catalog: catalog, Logger: logger}
}

// Resolve merges an order into a recipe.
//
// Property sets merge right-biased in the order: provider recipe (when
// included) -> order hook modifications -> explicit override set. The
// package identifier is synthesized from the order when the merged set
// lacks one, and recipe hooks run last.
func (r *Resolver) Resolve(ctx context.Context, order Order) (*Recipe, error) {
	if order == nil {
		if r.Prompt == nil {
			return nil, errors.New(errors.ErrCodeMalformedOrder, "no order given and prompting is unavailable")
		}
		prompted, err := r.Prompt(ctx)
		if err != nil {
			return nil, err
		}
		order = prompted
	}

	var merged Props
	switch o := order.(type) {
	case NameOrder:
		base, err := r.lookup(ctx, string(o))
		if err != nil {
			return nil, err
		}
		hookProps, hookName := firstOrderHook(r.OrderHooks, string(o), nil)
		if hookName != "" {
			r.Logger.Debug("order hook applied", "hook", hookName, "package", string(o))
		}
		merged = Merge(base, hookProps)

	case SpecOrder:
		if explicitlyDisablesInherit(o.Overrides) {
			merged = Merge(o.Overrides)
			break
		}
		hookProps, hookName := firstOrderHook(r.OrderHooks, o.Name, o.Overrides)
		if hookName != "" {
			r.Logger.Debug("order hook applied", "hook", hookName, "package", o.Name)
		}
		var base Props
		if requestsInherit(hookProps) || requestsInherit(o.Overrides) {
			var err error
			if base, err = r.lookup(ctx, o.Name); err != nil {
				return nil, err
			}
		}
		merged = Merge(base, hookProps, o.Overrides)

	default:
		return nil, errors.New(errors.ErrCodeMalformedOrder, "unsupported order %v (%T)", order, order)
	}

	if len(merged) == 0 {
		return nil, errors.New(errors.ErrCodeNoRecipe, "order for %q produced no recipe", order.PackageName())
	}
	if !merged.Has(KeyPackage) {
		merged = merged.With(KeyPackage, order.PackageName())
	}

	if hookProps, hookName := firstRecipeHook(r.RecipeHooks, merged); hookName != "" {
		r.Logger.Debug("recipe hook applied", "hook", hookName, "package", order.PackageName())
		merged = Merge(merged, hookProps)
	}

	return FromProps(merged)
}

// lookup fetches the provider recipe for name, translating a missing
// candidate into UnknownPackage.
func (r *Resolver) lookup(ctx context.Context, name string) (Props, error) {
	props, found, err := r.Catalog.Lookup(ctx, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "looking up %q", name)
	}
	if !found {
		return nil, errors.New(errors.ErrCodeUnknownPackage, "no provider carries a recipe for %q", name)
	}
	return props, nil
}

// explicitlyDisablesInherit reports an explicit inherit:false key.
func explicitlyDisablesInherit(props Props) bool {
	v, ok := props.Get(KeyInherit)
	if !ok {
		return false
	}
	b, ok := asBool(v)
	return ok && !b
}

// requestsInherit reports a truthy inherit key.
func requestsInherit(props Props) bool {
	v, ok := props.Get(KeyInherit)
	if !ok {
		return false
	}
	b, ok := asBool(v)
	return ok && b
}

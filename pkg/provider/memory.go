package provider

import (
	"context"

	"github.com/joist-el/joist/pkg/recipe"
)

// MemoryProvider serves a fixed candidate set. It is useful for tests and
// for programmatic registries.
type MemoryProvider struct {
	name  string
	index map[string]recipe.Props
}

// NewMemoryProvider creates a provider over the given candidate set.
func NewMemoryProvider(name string, index map[string]recipe.Props) *MemoryProvider {
	if index == nil {
		index = map[string]recipe.Props{}
	}
	return &MemoryProvider{name: name, index: index}
}

// Name returns the provider name.
func (p *MemoryProvider) Name() string { return p.name }

// Index returns the fixed candidate set.
func (p *MemoryProvider) Index(ctx context.Context) (map[string]recipe.Props, error) {
	return p.index, nil
}

// Update is a no-op.
func (p *MemoryProvider) Update(ctx context.Context) error { return nil }

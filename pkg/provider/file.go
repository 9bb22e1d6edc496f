package provider

import (
	"context"
	"os"
	"sync"

	"github.com/joist-el/joist/pkg/recipe"
)

// FileProvider serves candidates from a local TOML catalog file. The file
// is read once and cached in memory; Update re-reads it.
type FileProvider struct {
	name string
	path string

	mu    sync.Mutex
	index map[string]recipe.Props
}

// NewFileProvider creates a provider over the catalog at path.
func NewFileProvider(name, path string) *FileProvider {
	return &FileProvider{name: name, path: path}
}

// Name returns the provider name.
func (p *FileProvider) Name() string { return p.name }

// Index returns the catalog's candidate set, reading the file on first use.
func (p *FileProvider) Index(ctx context.Context) (map[string]recipe.Props, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index == nil {
		if err := p.load(); err != nil {
			return nil, err
		}
	}
	return p.index, nil
}

// Update re-reads the catalog file.
func (p *FileProvider) Update(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

func (p *FileProvider) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	index, err := parseCatalog(data)
	if err != nil {
		return err
	}
	p.index = index
	return nil
}

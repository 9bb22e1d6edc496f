package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joist-el/joist/pkg/httputil"
	"github.com/joist-el/joist/pkg/recipe"
)

const testCatalog = `
[packages.magit]
repo = "magit/magit"
host = "github"

[packages.dash]
repo = "magnars/dash.el"
host = "github"
branch = "master"
`

type failingProvider struct{ name string }

func (p *failingProvider) Name() string { return p.name }
func (p *failingProvider) Index(ctx context.Context) (map[string]recipe.Props, error) {
	return nil, errors.New("boom")
}
func (p *failingProvider) Update(ctx context.Context) error { return errors.New("boom") }

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileProviderIndex(t *testing.T) {
	p := NewFileProvider("local", writeCatalog(t))

	index, err := p.Index(context.Background())
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("len(index) = %d, want 2", len(index))
	}
	props := index["magit"]
	if v, _ := props.Get("repo"); v != "magit/magit" {
		t.Errorf("magit repo = %v, want magit/magit", v)
	}
	if v, _ := index["dash"].Get("branch"); v != "master" {
		t.Errorf("dash branch = %v, want master", v)
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	p := NewFileProvider("local", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := p.Index(context.Background()); err == nil {
		t.Error("Index on missing file expected error")
	}
}

func TestRegistryLookupOrder(t *testing.T) {
	first := NewMemoryProvider("first", map[string]recipe.Props{
		"magit": {{Key: "repo", Value: "first/magit"}},
	})
	second := NewMemoryProvider("second", map[string]recipe.Props{
		"magit": {{Key: "repo", Value: "second/magit"}},
		"dash":  {{Key: "repo", Value: "second/dash"}},
	})
	reg := NewRegistry(nil, first, second)
	ctx := context.Background()

	props, found, err := reg.Lookup(ctx, "magit")
	if err != nil || !found {
		t.Fatalf("Lookup(magit) = %v, %v", found, err)
	}
	if v, _ := props.Get("repo"); v != "first/magit" {
		t.Errorf("repo = %v, want first provider's candidate", v)
	}

	if _, found, _ := reg.Lookup(ctx, "nonexistent"); found {
		t.Error("Lookup(nonexistent) found = true, want false")
	}
}

func TestRegistryCandidatesSortedUnion(t *testing.T) {
	first := NewMemoryProvider("first", map[string]recipe.Props{
		"magit": {{Key: "repo", Value: "first/magit"}},
	})
	second := NewMemoryProvider("second", map[string]recipe.Props{
		"magit": {{Key: "repo", Value: "second/magit"}},
		"dash":  {{Key: "repo", Value: "second/dash"}},
		"avy":   {{Key: "repo", Value: "second/avy"}},
	})
	reg := NewRegistry(nil, first, second)

	candidates, err := reg.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Package
	}
	want := []string{"avy", "dash", "magit"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v (sorted)", names, want)
		}
	}
	// The earlier provider wins for duplicates.
	for _, c := range candidates {
		if c.Package == "magit" && c.Source != "first" {
			t.Errorf("magit source = %q, want first", c.Source)
		}
	}
}

func TestRegistryLookupPropagatesProviderError(t *testing.T) {
	reg := NewRegistry(nil, &failingProvider{name: "broken"})
	if _, _, err := reg.Lookup(context.Background(), "anything"); err == nil {
		t.Error("Lookup expected provider error")
	}
}

func TestRegistryUpdateAll(t *testing.T) {
	path := writeCatalog(t)
	reg := NewRegistry(nil, NewFileProvider("local", path), NewMemoryProvider("mem", nil))

	if err := reg.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll error: %v", err)
	}

	reg = NewRegistry(nil, &failingProvider{name: "broken"})
	if err := reg.UpdateAll(context.Background()); err == nil {
		t.Error("UpdateAll expected error from failing provider")
	}
}

func TestHTTPProviderFetchAndCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(testCatalog))
	}))
	defer srv.Close()

	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p := NewHTTPProvider("remote", srv.URL, cache)
	index, err := p.Index(ctx)
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("len(index) = %d, want 2", len(index))
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}

	// A fresh provider over the same cache serves from disk.
	p2 := NewHTTPProvider("remote", srv.URL, cache)
	if _, err := p2.Index(ctx); err != nil {
		t.Fatalf("Index error: %v", err)
	}
	if hits != 1 {
		t.Errorf("hits = %d after cached Index, want 1", hits)
	}

	// Update bypasses the cache.
	if err := p2.Update(ctx); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if hits != 2 {
		t.Errorf("hits = %d after Update, want 2", hits)
	}
}

func TestHTTPProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPProvider("remote", srv.URL, nil)
	if _, err := p.Index(context.Background()); err == nil {
		t.Error("Index expected error for 404 response")
	}
}

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/joist-el/joist/pkg/httputil"
	"github.com/joist-el/joist/pkg/observability"
	"github.com/joist-el/joist/pkg/recipe"
)

// HTTPProvider serves candidates from a TOML catalog fetched over HTTP.
// Fetched catalogs are cached on disk with a TTL; Index serves from the
// cache while fresh, and Update bypasses it.
type HTTPProvider struct {
	name   string
	url    string
	cache  *httputil.Cache
	client *http.Client

	mu    sync.Mutex
	index map[string]recipe.Props
}

// NewHTTPProvider creates a provider fetching the catalog at url, caching
// responses in cache (nil disables disk caching).
func NewHTTPProvider(name, url string, cache *httputil.Cache) *HTTPProvider {
	if cache != nil {
		cache = cache.Namespace("catalog:")
	}
	return &HTTPProvider{
		name:   name,
		url:    url,
		cache:  cache,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string { return p.name }

// Index returns the candidate set, from memory, disk cache, or the network,
// in that order.
func (p *HTTPProvider) Index(ctx context.Context) (map[string]recipe.Props, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index != nil {
		return p.index, nil
	}

	if p.cache != nil {
		var body string
		if ok, err := p.cache.Get(p.name, &body); ok && err == nil {
			observability.Cache().OnCacheHit(ctx, "catalog")
			index, err := parseCatalog([]byte(body))
			if err == nil {
				p.index = index
				return p.index, nil
			}
			// Unparseable cache entry: fall through to a fresh fetch.
		}
		observability.Cache().OnCacheMiss(ctx, "catalog")
	}

	return p.refresh(ctx)
}

// Update fetches a fresh catalog, replacing the memory and disk caches.
func (p *HTTPProvider) Update(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.refresh(ctx)
	return err
}

// refresh fetches and parses the catalog. Callers hold p.mu.
func (p *HTTPProvider) refresh(ctx context.Context) (map[string]recipe.Props, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
		if err != nil {
			return err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{Err: fmt.Errorf("%s: status %d", p.url, resp.StatusCode)}
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: status %d", p.url, resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	index, err := parseCatalog(body)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", p.url, err)
	}

	if p.cache != nil {
		if err := p.cache.Set(p.name, string(body)); err == nil {
			observability.Cache().OnCacheSet(context.WithoutCancel(ctx), "catalog", len(body))
		}
	}
	p.index = index
	return p.index, nil
}

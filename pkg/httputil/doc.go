// Package httputil provides HTTP utilities for remote catalog providers.
//
// # Overview
//
// This package provides infrastructure used by providers that fetch their
// candidate catalogs over HTTP:
//
//   - [Cache]: File-based response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores fetched catalogs in the filesystem (~/.cache/joist/)
// with configurable TTL. This speeds up repeated operations and reduces
// load on catalog hosts.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	var catalog string
//	ok, err := cache.Get("catalog:melpa", &catalog)
//	if !ok {
//	    catalog = fetchFromHost()
//	    cache.Set("catalog:melpa", catalog) // Store for later
//	}
//
// Cache keys should be namespaced by provider to avoid collisions.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures
// (network errors, 5xx responses), using exponential backoff:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchCatalog()
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/joist/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `joist cache clear` or by deleting
// the cache directory.
package httputil

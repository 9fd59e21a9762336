// Package httputil downloads alignment documents and FASTA files.
//
// # Overview
//
// Graph documents are often published next to the assemblies they
// describe. This package provides the pieces used to import them by URL:
//
//   - [Fetcher]: GET with retry and an on-disk response cache
//   - [Cache]: downloaded bodies kept verbatim on disk
//   - [Retry]: exponential backoff over [Transient] failures, shared with
//     the Redis report cache
//
// # Fetching
//
//	f, err := httputil.NewFetcher("", 24*time.Hour)
//	body, err := f.Get(ctx, "https://example.org/hg002/graph.json")
//
// Network errors, 5xx responses and 429 responses are retried. Other
// non-2xx responses fail immediately; 404 maps to NOT_FOUND.
//
// # Configuration
//
// Default settings:
//
//   - Cache directory: ~/.cache/hapaudit/downloads/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `hapaudit cache clear` or by deleting
// the cache directory.
package httputil

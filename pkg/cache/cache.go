// Package cache stores audit results between runs.
//
// The [Cache] interface is a byte-oriented key/value store with per-entry
// expiry. [FileCache] serves the CLI, [RedisCache] the HTTP API, and
// [NullCache] disables caching. Keys come from a [Keyer] so that the same
// graph and options always map to the same entry; a [ScopedKeyer] lets
// several deployments share one Redis database.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for serialized results.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the data for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Time-to-live for cached entries.
const (
	// TTLGraph applies to graph documents uploaded to the API.
	TTLGraph = 7 * 24 * time.Hour

	// TTLReport applies to audit reports. Reports are a pure function of
	// the graph and options, so they live as long as the graph.
	TTLReport = 7 * 24 * time.Hour
)

// NullCache misses on every lookup. The runner uses it for --no-cache.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}

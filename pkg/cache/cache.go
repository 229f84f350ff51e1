// Package cache stores finished score and search results keyed by their inputs.
//
// A result is fully determined by the matrix text, the starting tree text and
// the run options (a seeded search is repeatable), so results are cached under
// a SHA-256 of those inputs. Three backends are provided:
//
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing
//
// Keys come from a [Keyer]; [ScopedKeyer] adds a prefix so several
// deployments can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default lifetimes of cached results.
const (
	// TTLScore applies to single-tree scores, which are cheap to recompute.
	TTLScore = 24 * time.Hour

	// TTLSearch applies to search results.
	TTLSearch = 7 * 24 * time.Hour
)

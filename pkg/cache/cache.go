// Package cache stores sequencing results between runs.
//
// Caching is opt-in: a default run keeps no state from one run to the next.
// When enabled, the pipeline runner stores each solved sequence under a key
// derived from the job set and the run controls, so re-running an identical
// request skips the solver.
//
// Three backends are provided:
//   - [FileCache] for the CLI, under the XDG cache directory
//   - [RedisCache] for shared use by API servers
//   - [NullCache] when caching is disabled
//
// Keys are produced by a [Keyer]; [ScopedKeyer] prefixes them so several
// tenants can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is reported
	// as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLSequence = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

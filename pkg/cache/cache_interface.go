package cache

import (
	"context"
	"time"
)

// Cache is the contract of the cache layer so the Redis implementation can
// be swapped (in-memory in tests).
type Cache interface {
	// Get unmarshals the cached value into dest.
	// found = false on a miss, dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern (e.g. "cars:*")
	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error
}

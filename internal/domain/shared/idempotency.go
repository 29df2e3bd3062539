package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that retried operations resolve to
// the result of the first attempt.
type IdempotencyStore interface {
	// Reserve claims key for value with a TTL.
	// Returns true if the key was newly claimed, false if it already held a value.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Lookup returns the value stored for key, or "" and false when unknown
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Release forgets a key, used when the guarded operation failed
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

// Package pending holds staged scrape result sets between staging and mapping commit.
// Entries are short lived and keyed by an opaque token.
package pending

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for missing, expired or already consumed tokens
var ErrNotFound = errors.New("pending entry not found")

// DefaultTTL applies when Put is called with a non-positive ttl
const DefaultTTL = time.Hour

// Store defines the interface for pending result storage
type Store interface {
	// Put stores value under token, replacing any previous value
	Put(ctx context.Context, token string, value []byte, ttl time.Duration) error

	// Get returns the value without consuming it
	Get(ctx context.Context, token string) ([]byte, error)

	// Take atomically returns and removes the value. Of two concurrent
	// calls for the same token at most one succeeds.
	Take(ctx context.Context, token string) ([]byte, error)

	// Delete removes the value; deleting a missing token is not an error
	Delete(ctx context.Context, token string) error

	// Len returns the number of live entries
	Len(ctx context.Context) (int64, error)

	Close() error
}

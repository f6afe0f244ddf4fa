// Package cache provides the key→bytes store shared by all in-flight
// requests. Keys are opaque strings; backends expose no enumeration or
// eviction beyond their own expiry.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the expiration applied at write time by backends that
// support expiry. The filesystem backend keeps entries until overwritten.
const DefaultTTL = 24 * time.Hour

// Store is the cache contract. Get reports absence for missing, expired, or
// unreadable entries. Put is best-effort from the pipeline's point of view: a
// failed write is logged by the caller, never surfaced as a request error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte) error
}

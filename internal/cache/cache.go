// Package cache provides the short-lived read caches used in front of the ledger.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values for a limited time. A failed lookup is a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

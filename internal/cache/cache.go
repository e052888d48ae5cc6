// Package cache provides keyed stores whose entries expire a fixed duration
// after their last access. Expired entries are indistinguishable from absent
// ones.
package cache

import (
	"context"
	"time"
)

// Store is a typed TTL store. Implementations must allow concurrent use with
// operations on distinct keys never blocking each other for long.
type Store[V any] interface {
	// Get returns the value for key and refreshes its expiry.
	Get(ctx context.Context, key string) (V, bool)
	// Set stores value under key with a fresh expiry.
	Set(ctx context.Context, key string, value V)
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string)
}

type options struct {
	now    func() time.Time
	shards int
}

// Option configures a memory store.
type Option func(*options)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithShards sets the number of lock shards. Values below 1 are ignored.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

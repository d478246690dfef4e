// Package kv defines the coordination store client interface and errors.
//
// The coordination store is the shared low-latency key-value store that the
// admission subsystem runs against. The interface is deliberately thin: scalar
// get/set with TTL, an atomically grouped multi-set, plain sets, sorted sets,
// key scanning, and the single server-side admission script.
package kv

import (
	"context"
	"time"
)

// Member is one entry of a sorted set: a member id plus its numeric score.
type Member struct {
	ID    string
	Score float64
}

// Store provides access to the coordination store.
//
// Implementations must guarantee that AdmitFirstN executes as one indivisible
// operation on the store side; every other method is a single round trip.
type Store interface {
	// Get returns the value at key, or ErrKeyNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a scalar value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetMulti writes all pairs in one atomic group: a concurrent reader sees
	// either none or all of them.
	SetMulti(ctx context.Context, pairs map[string]string) error

	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// SAdd inserts member into the set at key. Idempotent.
	SAdd(ctx context.Context, key, member string) error

	// SIsMember reports set membership. A missing key reads as empty.
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// ZCard returns the cardinality of the sorted set at key.
	ZCard(ctx context.Context, key string) (int64, error)

	// ZRangeWithScores returns the full sorted set at key in score order.
	ZRangeWithScores(ctx context.Context, key string) ([]Member, error)

	// ScanKeys returns every key matching the glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// AdmitFirstN runs the atomic admission step against the sorted set at key:
	// if the current cardinality is below capacity, member is inserted with the
	// given score and the new cardinality is returned; otherwise 0 is returned
	// and nothing is mutated. The check and the insert happen in one indivisible
	// server-side operation.
	AdmitFirstN(ctx context.Context, key string, capacity, score int64, member string) (int64, error)

	// Close releases the underlying connection.
	Close() error
}

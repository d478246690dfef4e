package kv

import "errors"

// Sentinel kinds for coordination store errors.
var (
	// ErrKeyNotFound reports an absent key, distinct from a store outage.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnavailable wraps any transport or server failure of the store.
	ErrUnavailable = errors.New("coordination store unavailable")
)

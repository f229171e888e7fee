// Package store provides the durable key-value store backing Subsight's
// persisted state. Every component that persists anything depends on the KV
// interface rather than on a concrete database.
package store

import "context"

// KV is a minimal durable key-value contract. Values are opaque serialized
// records; callers own the encoding.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

package domain

import "context"

// KVStore is the byte-oriented key-value store every record lives in.
//
// Put overwrites unconditionally (last writer wins). There is no multi-key
// atomicity and no compare-and-swap; read-modify-write cycles go through
// record.Mutator, which serializes them per key.
type KVStore interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, ns Namespace, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, ns Namespace, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error
	// Iterate calls fn for every key in ns in key order until fn returns false.
	// value is a copy owned by fn.
	Iterate(ctx context.Context, ns Namespace, fn func(key string, value []byte) bool) error
	Ping(ctx context.Context) error
	Close() error
}

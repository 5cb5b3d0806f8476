package kv

import "errors"

var (
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("kv: store closed")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("kv: unknown backend")
)

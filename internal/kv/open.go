package kv

import (
	"context"
	"fmt"

	"github.com/tukib/snakebot/internal/domain"
)

// Backend names accepted by Open.
const (
	BackendPebble = "pebble"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	PebblePath string
	RedisURL   string
}

// Open returns an instrumented store for the configured backend.
func Open(ctx context.Context, opts Options) (domain.KVStore, error) {
	switch opts.Backend {
	case BackendPebble:
		p, err := OpenPebble(opts.PebblePath)
		if err != nil {
			return nil, err
		}
		return Instrument(p, BackendPebble), nil
	case BackendRedis:
		rdb, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return Instrument(NewRedis(rdb), BackendRedis), nil
	case BackendMemory:
		return Instrument(NewMemory(), BackendMemory), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

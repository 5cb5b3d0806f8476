package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/tukib/snakebot/internal/domain"
)

// pebbleSeparator sits between namespace and key. Namespaces never contain it,
// so the range [ns\x00, ns\x01) holds exactly one namespace.
const pebbleSeparator = "\x00"

// Pebble stores records in an on-disk Pebble database.
type Pebble struct {
	mu   sync.RWMutex
	db   *pebble.DB
	path string
}

var _ domain.KVStore = (*Pebble)(nil)

// OpenPebble opens (or creates) a Pebble database at path.
func OpenPebble(path string) (*Pebble, error) {
	slog.Info("Opening pebble store", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}
	return &Pebble{db: db, path: path}, nil
}

func (p *Pebble) Get(ctx context.Context, ns domain.Namespace, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, false, ErrClosed
	}

	v, closer, err := p.db.Get(pebbleKey(ns, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get %s/%s: %w", ns, key, err)
	}
	out := append([]byte(nil), v...)
	if err := closer.Close(); err != nil {
		return nil, false, fmt.Errorf("pebble get %s/%s: close: %w", ns, key, err)
	}
	return out, true, nil
}

func (p *Pebble) Put(ctx context.Context, ns domain.Namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}

	if err := p.db.Set(pebbleKey(ns, key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble put %s/%s: %w", ns, key, err)
	}
	return nil
}

func (p *Pebble) Delete(ctx context.Context, ns domain.Namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}

	if err := p.db.Delete(pebbleKey(ns, key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %s/%s: %w", ns, key, err)
	}
	return nil
}

func (p *Pebble) Iterate(ctx context.Context, ns domain.Namespace, fn func(key string, value []byte) bool) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}

	prefix := []byte(string(ns) + pebbleSeparator)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte(string(ns) + "\x01"),
	})
	if err != nil {
		return fmt.Errorf("pebble iterate %s: %w", ns, err)
	}
	defer func() { _ = iter.Close() }()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		k := iter.Key()
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		key := string(k[len(prefix):])
		value := append([]byte(nil), iter.Value()...)
		if !fn(key, value) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("pebble iterate %s: %w", ns, err)
	}
	return nil
}

func (p *Pebble) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}
	return ctx.Err()
}

// Close flushes and closes the database. Further calls return ErrClosed.
func (p *Pebble) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("failed to close pebble: %w", err)
	}
	slog.Info("Pebble store closed", "path", p.path)
	return nil
}

func pebbleKey(ns domain.Namespace, key string) []byte {
	return []byte(string(ns) + pebbleSeparator + key)
}

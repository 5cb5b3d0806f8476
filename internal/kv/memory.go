package kv

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tukib/snakebot/internal/domain"
)

// Memory is an in-process store. Values are copied on the way in and out.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ domain.KVStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, ns domain.Namespace, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}

	v, ok := m.data[memoryKey(ns, key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(ctx context.Context, ns domain.Namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.data[memoryKey(ns, key)] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, ns domain.Namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	delete(m.data, memoryKey(ns, key))
	return nil
}

func (m *Memory) Iterate(ctx context.Context, ns domain.Namespace, fn func(key string, value []byte) bool) error {
	prefix := string(ns) + pebbleSeparator

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	keys := make([]string, 0)
	snapshot := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			snapshot[k] = append([]byte(nil), v...)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(strings.TrimPrefix(k, prefix), snapshot[k]) {
			return nil
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func memoryKey(ns domain.Namespace, key string) string {
	return string(ns) + pebbleSeparator + key
}

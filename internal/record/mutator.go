package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
)

// Action tells the Mutator what to do with the value returned by a MutateFunc.
type Action int

const (
	Keep Action = iota
	Put
	Delete
)

func (a Action) String() string {
	switch a {
	case Put:
		return "put"
	case Delete:
		return "delete"
	}
	return "keep"
}

// MutateFunc computes the next value from the current one. It runs on a shard
// goroutine and must not call the Mutator.
type MutateFunc func(current []byte, found bool) (next []byte, action Action, err error)

// ErrStopped is returned by Mutate after Stop.
var ErrStopped = errors.New("record: mutator stopped")

const shardQueueSize = 64

type mutation struct {
	ctx  context.Context
	ns   domain.Namespace
	key  string
	fn   MutateFunc
	done chan error
}

// Mutator serializes read-modify-write cycles per (namespace, key). Keys hash
// onto a fixed set of shards; each shard goroutine owns its keys, so two
// cycles on the same key never interleave.
type Mutator struct {
	store  domain.KVStore
	shards []chan mutation

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewMutator starts shardCount shard goroutines over store.
func NewMutator(store domain.KVStore, shardCount int) *Mutator {
	if shardCount < 1 {
		shardCount = 1
	}
	m := &Mutator{
		store:  store,
		shards: make([]chan mutation, shardCount),
	}
	for i := range m.shards {
		ch := make(chan mutation, shardQueueSize)
		m.shards[i] = ch
		m.wg.Add(1)
		go m.run(ch)
	}
	return m
}

// Mutate runs fn against the current value of key and applies its action
// before the next cycle for that key starts. Once queued, a cycle always
// completes; cancellation surfaces through the store calls.
func (m *Mutator) Mutate(ctx context.Context, ns domain.Namespace, key string, fn MutateFunc) error {
	mut := mutation{ctx: ctx, ns: ns, key: key, fn: fn, done: make(chan error, 1)}

	m.mu.RLock()
	if m.stopped {
		m.mu.RUnlock()
		return ErrStopped
	}
	metrics.MutatorQueueDepth.Inc()
	select {
	case m.shards[m.shardFor(ns, key)] <- mut:
	case <-ctx.Done():
		m.mu.RUnlock()
		metrics.MutatorQueueDepth.Dec()
		return ctx.Err()
	}
	m.mu.RUnlock()

	return <-mut.done
}

// Stop rejects new cycles, drains the queued ones and waits for the shards.
func (m *Mutator) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	for _, ch := range m.shards {
		close(ch)
	}
	m.mu.Unlock()

	m.wg.Wait()
	slog.Info("Mutator stopped", "shards", len(m.shards))
}

func (m *Mutator) shardFor(ns domain.Namespace, key string) int {
	h := xxhash.New()
	_, _ = h.WriteString(string(ns))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(key)
	return int(h.Sum64() % uint64(len(m.shards)))
}

func (m *Mutator) run(ch <-chan mutation) {
	defer m.wg.Done()
	for mut := range ch {
		metrics.MutatorQueueDepth.Dec()
		mut.done <- m.apply(mut)
	}
}

func (m *Mutator) apply(mut mutation) (err error) {
	outcome := "error"
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Mutation panicked", "namespace", mut.ns, "key", mut.key, "panic", r)
			err = apperrors.InternalError("mutation panicked", fmt.Errorf("%v", r))
		}
		metrics.MutationsTotal.WithLabelValues(string(mut.ns), outcome).Inc()
	}()

	current, found, err := m.store.Get(mut.ctx, mut.ns, mut.key)
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", mut.ns, mut.key, err)
	}

	next, action, err := mut.fn(current, found)
	if err != nil {
		return err
	}

	switch action {
	case Put:
		if err := m.store.Put(mut.ctx, mut.ns, mut.key, next); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", mut.ns, mut.key, err)
		}
	case Delete:
		if found {
			if err := m.store.Delete(mut.ctx, mut.ns, mut.key); err != nil {
				return fmt.Errorf("failed to delete %s/%s: %w", mut.ns, mut.key, err)
			}
		}
	}
	outcome = action.String()
	return nil
}

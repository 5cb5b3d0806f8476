package kv

import (
	"context"
	"time"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/metrics"
)

// Instrumented records operation counts and latency for any backend.
type Instrumented struct {
	next    domain.KVStore
	backend string
}

var _ domain.KVStore = (*Instrumented)(nil)

func Instrument(next domain.KVStore, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreOpsTotal.WithLabelValues(s.backend, op, status).Inc()
	metrics.StoreOpDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *Instrumented) Get(ctx context.Context, ns domain.Namespace, key string) ([]byte, bool, error) {
	start := time.Now()
	v, found, err := s.next.Get(ctx, ns, key)
	s.observe("get", start, err)
	return v, found, err
}

func (s *Instrumented) Put(ctx context.Context, ns domain.Namespace, key string, value []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, ns, key, value)
	s.observe("put", start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, ns domain.Namespace, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, ns, key)
	s.observe("delete", start, err)
	return err
}

func (s *Instrumented) Iterate(ctx context.Context, ns domain.Namespace, fn func(key string, value []byte) bool) error {
	start := time.Now()
	err := s.next.Iterate(ctx, ns, fn)
	s.observe("iterate", start, err)
	return err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}

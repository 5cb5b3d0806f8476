package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
)

// CurrentVersion is the newest record layout this binary understands.
const CurrentVersion = 1

// Header carries the layout version of a JSON record.
type Header struct {
	V int `json:"v"`
}

func (h Header) recordVersion() int { return h.V }
func (h *Header) stamp()            { h.V = CurrentVersion }

type versioned interface{ recordVersion() int }
type stamper interface{ stamp() }

// Codec converts between stored bytes and a typed record of one namespace.
type Codec[T any] struct {
	Namespace domain.Namespace
	Decode    func(b []byte, found bool) (T, error)
	Encode    func(v T) ([]byte, error)
}

func jsonCodec[T any](ns domain.Namespace, empty func() T) Codec[T] {
	return Codec[T]{
		Namespace: ns,
		Decode: func(b []byte, found bool) (T, error) {
			v := empty()
			if !found {
				return v, nil
			}
			if err := json.Unmarshal(b, &v); err != nil {
				var zero T
				return zero, apperrors.MalformedError("undecodable record", err).WithField("namespace", ns)
			}
			if r, ok := any(v).(versioned); ok && r.recordVersion() > CurrentVersion {
				var zero T
				return zero, apperrors.MalformedError(
					fmt.Sprintf("record version %d is newer than %d", r.recordVersion(), CurrentVersion), nil,
				).WithField("namespace", ns)
			}
			return v, nil
		},
		Encode: func(v T) ([]byte, error) {
			if s, ok := any(&v).(stamper); ok {
				s.stamp()
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, apperrors.InternalError("failed to encode record", err).WithField("namespace", ns)
			}
			return b, nil
		},
	}
}

// Load reads and decodes one record. A missing key yields the empty record.
func Load[T any](ctx context.Context, store domain.KVStore, c Codec[T], key string) (T, error) {
	b, found, err := store.Get(ctx, c.Namespace, key)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read %s/%s: %w", c.Namespace, key, err)
	}
	v, err := c.Decode(b, found)
	if err != nil {
		metrics.MalformedRecordsTotal.WithLabelValues(string(c.Namespace)).Inc()
		var zero T
		return zero, withKey(err, key)
	}
	return v, nil
}

// Update decodes the record under key, lets fn modify it and applies fn's
// action, all inside one serialized cycle. It returns the record as fn left it.
func Update[T any](ctx context.Context, m *Mutator, c Codec[T], key string, fn func(rec *T) (Action, error)) (T, error) {
	var out T
	err := m.Mutate(ctx, c.Namespace, key, func(current []byte, found bool) ([]byte, Action, error) {
		rec, err := c.Decode(current, found)
		if err != nil {
			metrics.MalformedRecordsTotal.WithLabelValues(string(c.Namespace)).Inc()
			return nil, Keep, withKey(err, key)
		}
		action, err := fn(&rec)
		if err != nil {
			return nil, Keep, err
		}
		out = rec
		if action != Put {
			return nil, action, nil
		}
		next, err := c.Encode(rec)
		if err != nil {
			return nil, Keep, err
		}
		return next, Put, nil
	})
	return out, err
}

func withKey(err error, key string) error {
	if se := apperrors.AsStructuredError(err); se != nil {
		return se.WithField("key", key)
	}
	return err
}

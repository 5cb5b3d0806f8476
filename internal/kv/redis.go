package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/platform/retry"
)

const (
	redisSeparator = ":"
	scanBatch      = 256
)

var redisRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   50 * time.Millisecond,
	RateLimitBackoff: 500 * time.Millisecond,
}

// Redis stores records as plain string keys "<namespace>:<key>".
type Redis struct {
	rdb    *goredis.Client
	policy retry.Policy
}

var _ domain.KVStore = (*Redis)(nil)

// NewRedisClient creates a go-redis client from a URL (e.g. "redis://localhost:6379"),
// installs the metrics and circuit breaker hooks and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	rdb.AddHook(&MetricsHook{})
	rdb.AddHook(NewCircuitBreakerHook())

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func NewRedis(rdb *goredis.Client) *Redis {
	return &Redis{rdb: rdb, policy: redisRetryPolicy}
}

func (r *Redis) Get(ctx context.Context, ns domain.Namespace, key string) ([]byte, bool, error) {
	type result struct {
		value []byte
		found bool
	}
	res, err := retry.Do(ctx, r.policy, classifyRedisError, func() (result, error) {
		v, err := r.rdb.Get(ctx, redisKey(ns, key)).Bytes()
		if errors.Is(err, goredis.Nil) {
			return result{}, nil
		}
		if err != nil {
			return result{}, err
		}
		return result{value: v, found: true}, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s/%s: %w", ns, key, err)
	}
	return res.value, res.found, nil
}

func (r *Redis) Put(ctx context.Context, ns domain.Namespace, key string, value []byte) error {
	err := retry.DoVoid(ctx, r.policy, classifyRedisError, func() error {
		return r.rdb.Set(ctx, redisKey(ns, key), value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis put %s/%s: %w", ns, key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, ns domain.Namespace, key string) error {
	err := retry.DoVoid(ctx, r.policy, classifyRedisError, func() error {
		return r.rdb.Del(ctx, redisKey(ns, key)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Iterate scans the namespace, sorts the keys and reads them in batches.
// Keys written during the scan may or may not be visited.
func (r *Redis) Iterate(ctx context.Context, ns domain.Namespace, fn func(key string, value []byte) bool) error {
	prefix := string(ns) + redisSeparator

	var keys []string
	iter := r.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", ns, err)
	}
	sort.Strings(keys)

	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		batch := keys[start:end]

		values, err := r.rdb.MGet(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis mget %s: %w", ns, err)
		}
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				// deleted between SCAN and MGET
				continue
			}
			if !fn(strings.TrimPrefix(batch[i], prefix), []byte(s)) {
				return nil
			}
		}
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	if err := r.rdb.Close(); err != nil {
		return fmt.Errorf("failed to close redis: %w", err)
	}
	return nil
}

func classifyRedisError(err error) retry.Action {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retry.Stop
	case errors.Is(err, circuitbreaker.ErrOpen):
		return retry.Stop
	case errors.Is(err, goredis.ErrClosed):
		return retry.Stop
	default:
		return retry.Retry
	}
}

func redisKey(ns domain.Namespace, key string) string {
	return string(ns) + redisSeparator + key
}

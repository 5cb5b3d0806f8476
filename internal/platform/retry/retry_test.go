package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukib/snakebot/internal/platform/retry"
)

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   1 * time.Millisecond,
	RateLimitBackoff: 5 * time.Millisecond,
}

var errTransient = errors.New("connection reset by peer")

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		calls++
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsValueAfterRetries(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, errTransient
		}
		return []byte("42"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "42", string(val))
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("WRONGTYPE")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func() (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})

	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	})
	require.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, fastPolicy.MaxAttempts, calls)
}

func TestDo_InvalidPolicy(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), retry.Policy{}, alwaysRetry, func() (struct{}, error) {
		calls++
		return struct{}{}, nil
	})
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestDo_Backoffs(t *testing.T) {
	tests := []struct {
		name     string
		policy   retry.Policy
		action   retry.Action
		expected []time.Duration
	}{
		{
			name:     "doubling",
			policy:   retry.Policy{MaxAttempts: 4, InitialBackoff: time.Millisecond},
			action:   retry.Retry,
			expected: []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond},
		},
		{
			name:     "capped",
			policy:   retry.Policy{MaxAttempts: 4, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
			action:   retry.Retry,
			expected: []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond},
		},
		{
			name:     "rate limited",
			policy:   retry.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond, RateLimitBackoff: 5 * time.Millisecond},
			action:   retry.After,
			expected: []time.Duration{5 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var observed []time.Duration
			p := tt.policy
			p.OnRetry = func(_ int, _ error, backoff time.Duration) {
				observed = append(observed, backoff)
			}

			_, _ = retry.Do(context.Background(), p, func(error) retry.Action { return tt.action }, func() (struct{}, error) {
				return struct{}{}, errTransient
			})
			assert.Equal(t, tt.expected, observed)
		})
	}
}

func TestDo_WaitsOnInjectedClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := retry.Policy{MaxAttempts: 2, InitialBackoff: time.Hour, Clock: clock}

	done := make(chan error, 1)
	calls := 0
	go func() {
		_, err := retry.Do(context.Background(), p, alwaysRetry, func() (struct{}, error) {
			calls++
			if calls == 1 {
				return struct{}{}, errTransient
			}
			return struct{}{}, nil
		})
		done <- err
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Hour)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("retry did not resume after the fake clock advanced")
	}
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := retry.Policy{
		MaxAttempts:      3,
		InitialBackoff:   10 * time.Second,
		RateLimitBackoff: 10 * time.Second,
	}

	calls := 0
	_, err := retry.Do(ctx, p, alwaysRetry, func() (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, errTransient
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryAttempts(t *testing.T) {
	var recorded []int
	p := fastPolicy
	p.OnRetry = func(attempt int, _ error, _ time.Duration) {
		recorded = append(recorded, attempt)
	}

	_, _ = retry.Do(context.Background(), p, alwaysRetry, func() (struct{}, error) {
		return struct{}{}, errTransient
	})

	// no callback for the final, exhausting attempt
	assert.Equal(t, []int{1, 2}, recorded)
}

func TestDoVoid_PropagatesPermanentError(t *testing.T) {
	underlying := errors.New("redis: client is closed")
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysStop, func() error {
		return underlying
	})
	require.ErrorIs(t, err, underlying)
	var permErr *retry.PermanentError
	assert.ErrorAs(t, err, &permErr)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "stop", retry.Stop.String())
	assert.Equal(t, "retry", retry.Retry.String())
	assert.Equal(t, "after", retry.After.String())
	assert.Equal(t, "unknown", retry.Action(9).String())
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }

package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"forbidden", restError(http.StatusForbidden), true},
		{"unknown message", restError(http.StatusNotFound), true},
		{"rate limited", restError(http.StatusTooManyRequests), false},
		{"server error", restError(http.StatusBadGateway), false},
		{"transport", errors.New("connection reset"), false},
		{"cancelled", context.Canceled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBreakerSuccess(tt.err))
		})
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	p := &Platform{cb: newBreaker()}
	serverErr := restError(http.StatusInternalServerError)

	for range 5 {
		err := doVoid(p, func() error { return serverErr })
		require.ErrorIs(t, err, serverErr)
	}
	assert.Equal(t, gobreaker.StateOpen, p.cb.State())

	called := false
	err := doVoid(p, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called, "open breaker fails fast")
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	p := &Platform{cb: newBreaker()}

	for range 10 {
		err := doVoid(p, func() error { return restError(http.StatusForbidden) })
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, p.cb.State())
}

func TestDo_ReturnsValue(t *testing.T) {
	p := &Platform{cb: newBreaker()}
	got, err := do(p, func() ([]string, error) { return []string{"a"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	empty, err := do(p, func() ([]string, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestBreakerStateToFloat(t *testing.T) {
	assert.Equal(t, 0.0, breakerStateToFloat(gobreaker.StateClosed))
	assert.Equal(t, 1.0, breakerStateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, breakerStateToFloat(gobreaker.StateOpen))
}

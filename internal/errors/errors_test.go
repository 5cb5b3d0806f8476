package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("index out of range")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "index out of range", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "index out of range")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("Message not found")

	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, "Message not found", err.Message)
	assert.Contains(t, err.Error(), "not_found")
}

func TestMalformedError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := MalformedError("decode poll record", cause)

	assert.Equal(t, KindMalformed, err.Kind)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "malformed")
	assert.Contains(t, err.Error(), "unexpected end of JSON input")
}

func TestExternalError(t *testing.T) {
	cause := fmt.Errorf("403 Forbidden")
	err := ExternalError("grant role", cause)

	assert.Equal(t, KindExternal, err.Kind)
	assert.True(t, errors.Is(err, cause))
}

func TestWithContext(t *testing.T) {
	err := ValidationError("bad").WithContext("namespace", "polls").WithField("key", "42")

	assert.Equal(t, "polls", err.Context["namespace"])
	assert.Equal(t, "42", err.Context["key"])
}

func TestWithContext_NilMap(t *testing.T) {
	err := &Error{Kind: KindInternal, Message: "x"}
	err.WithContext("a", 1)
	require.NotNil(t, err.Context)
	assert.Equal(t, 1, err.Context["a"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	plain := errors.New("boom")
	structured := AsStructuredError(plain)
	assert.Equal(t, KindInternal, structured.Kind)
	assert.Equal(t, plain, structured.Cause)

	original := ValidationError("bad")
	wrapped := fmt.Errorf("while removing: %w", original)
	assert.Same(t, original, AsStructuredError(wrapped))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindMalformed, KindOf(fmt.Errorf("ctx: %w", MalformedError("x", nil))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIs_WalksCauses(t *testing.T) {
	inner := TimeoutError("prompt", nil)
	outer := InternalError("rrole start", inner)

	assert.True(t, Is(outer, KindInternal))
	assert.True(t, Is(outer, KindTimeout))
	assert.False(t, Is(outer, KindValidation))
	assert.False(t, Is(errors.New("plain"), KindInternal))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", ValidationError("Could not find role mods"), "Could not find role mods"},
		{"not found", NotFoundError("Message not found"), "Message not found"},
		{"timeout", TimeoutError("prompt", nil), "Timed out"},
		{"external", ExternalError("send", errors.New("403")), "I do not have the required permissions to run this command."},
		{"malformed", MalformedError("decode", nil), "Stored data for this command is corrupted"},
		{"internal", errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrorTypeNetwork, "connection reset")
	assert.Equal(t, "network error: connection reset", plain.Error())

	coded := &Error{Type: ErrorTypeAuth, Message: "token rejected", Code: 401}
	assert.Equal(t, "auth error (code 401): token rejected", coded.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	wrapped := Wrap(ErrorTypeNetwork, "fetch failed", cause)

	require.Error(t, wrapped)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.ErrorIs(t, wrapped, cause)
}

func TestTypeOf(t *testing.T) {
	err := New(ErrorTypeDatabase, "no such table")
	assert.Equal(t, ErrorTypeDatabase, TypeOf(err))

	// The type survives further wrapping
	outer := fmt.Errorf("opening backup: %w", err)
	assert.Equal(t, ErrorTypeDatabase, TypeOf(outer))

	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestCodeOf(t *testing.T) {
	err := &Error{Type: ErrorTypeRateLimit, Message: "slow down", Code: 429}
	assert.Equal(t, 429, CodeOf(fmt.Errorf("call failed: %w", err)))
	assert.Equal(t, 0, CodeOf(fmt.Errorf("plain")))
}

func TestIsNotFound(t *testing.T) {
	err := New(ErrorTypeNotFound, "photo gone")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("walking stream: %w", err)))
	assert.False(t, IsNotFound(New(ErrorTypeAuth, "nope")))
	assert.False(t, IsNotFound(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))

	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeParsing))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrorTypeParsing))
	assert.True(t, IsFatal(ErrorTypeLicense))
	assert.True(t, IsFatal(ErrorTypeDatabase))
	assert.True(t, IsFatal(ErrorTypeConfig))

	assert.False(t, IsFatal(ErrorTypeNetwork))
	assert.False(t, IsFatal(ErrorTypeNotFound))
	assert.False(t, IsFatal(ErrorTypeServerError))
	assert.False(t, IsFatal(ErrorTypeUnknown))
}

func TestTypeFromStatusCode(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeNetwork},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{400, ErrorTypeUnknown},
		{200, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeFromStatusCode(tt.status), "status %d", tt.status)
	}
}

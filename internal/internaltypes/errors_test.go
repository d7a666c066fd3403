package internaltypes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusError_AuthIsUpstreamSubtype(t *testing.T) {
	err := NewStatusError("assistant", "create thread", http.StatusUnauthorized, `{"error":"bad key"}`)

	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsFatal(err))
}

func TestNewStatusError_Plain(t *testing.T) {
	err := NewStatusError("webhook", "post reservation", http.StatusNotFound, "workflow not active")

	var ae *AuthError
	assert.False(t, errors.As(err, &ae))
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "workflow not active")
	assert.True(t, IsFatal(err))
}

func TestClassifyTransport(t *testing.T) {
	assert.Nil(t, ClassifyTransport("x", "y", nil))

	err := ClassifyTransport("webhook", "check", fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.True(t, IsTimeout(err))
	assert.False(t, IsFatal(err))

	err = ClassifyTransport("webhook", "check", errors.New("dial tcp: connection refused"))
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "check", te.Op)
	assert.True(t, IsFatal(err))
}

func TestIsFatal_RecoverableKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"nil", nil},
		{"poll timeout", &PollTimeoutError{RunID: "run_1", Polls: 3}},
		{"run failed", &RunFailedError{RunID: "run_1", Status: "failed"}},
		{"extraction exhausted", fmt.Errorf("finalize: %w", ErrExtractionExhausted)},
		{"timeout", &TimeoutError{Service: "assistant", Op: "get run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsFatal(tt.err))
		})
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(NewRateLimitError("rate limit exceeded", nil, nil)))
	assert.Equal(t, ErrorTypeRequestTooLarge, TypeOf(NewRequestTooLargeError("request too large", nil)))
	assert.Equal(t, ErrorTypeNetwork, TypeOf(fmt.Errorf("generate: %w", NewNetworkError("dial", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewRateLimitError("rate limit", nil, nil)))
	assert.True(t, IsRetryableError(NewTimeoutError("slow", time.Second, context.DeadlineExceeded)))
	assert.True(t, IsRetryableError(NewNetworkError("connection refused", nil)))
	assert.False(t, IsRetryableError(NewRequestTooLargeError("too large", nil)), "the same prompt fails the same way")
	assert.False(t, IsRetryableError(NewProviderError("some error", nil)))
	assert.False(t, IsRetryableError(errors.New("plain")))
}

func TestExtractRetryAfter(t *testing.T) {
	retryAfter := 5 * time.Minute
	extracted := ExtractRetryAfter(NewRateLimitError("rate limit", &retryAfter, nil))
	require.NotNil(t, extracted)
	assert.Equal(t, retryAfter, *extracted)

	assert.Nil(t, ExtractRetryAfter(NewProviderError("some error", nil)))
}

func TestIsTransportError(t *testing.T) {
	refused := &url.Error{Op: "Post", URL: "http://127.0.0.1:1/api/chat", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}

	assert.True(t, IsTransportError(refused))
	assert.True(t, IsTransportError(fmt.Errorf("chat: %w", refused)))
	assert.True(t, IsTransportError(&net.DNSError{Err: "no such host", Name: "ollama.invalid"}))

	cancelled := &url.Error{Op: "Post", URL: "http://127.0.0.1:1", Err: context.Canceled}
	assert.False(t, IsTransportError(cancelled))
	assert.False(t, IsTransportError(context.DeadlineExceeded))
	assert.False(t, IsTransportError(errors.New("bad json")))
	assert.False(t, IsTransportError(nil))
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("gateway call", 2*time.Second, context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, TypeOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "timeout 2s")
}

func TestErrorUnwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := NewProviderError("wrapped", originalErr)
	assert.ErrorIs(t, wrappedErr, originalErr)
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())
	assert.Equal(t, "bare", NewProviderError("bare", nil).Error())
}

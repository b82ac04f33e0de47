package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrorType classifies a provider failure independently of the SDK that raised it.
type ErrorType string

const (
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeRequestTooLarge ErrorType = "request_too_large"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeProvider        ErrorType = "provider"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeTimeout         ErrorType = "timeout"
)

// Error is what every adapter returns in place of its SDK's error.
// Retryable drives WithRetry; RetryAfter, when set, is the provider's hint.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error
}

func (e *Error) Error() string {
	if e.ProviderErr == nil {
		return e.Message
	}
	return e.Message + ": " + e.ProviderErr.Error()
}

func (e *Error) Unwrap() error { return e.ProviderErr }

func asError(err error) (*Error, bool) {
	var llmErr *Error
	ok := errors.As(err, &llmErr)
	return llmErr, ok
}

// TypeOf reports the classification of err, or "" when err did not come from an adapter.
func TypeOf(err error) ErrorType {
	if llmErr, ok := asError(err); ok {
		return llmErr.Type
	}
	return ""
}

// IsRetryableError reports whether another attempt of the same request may succeed.
func IsRetryableError(err error) bool {
	llmErr, ok := asError(err)
	return ok && llmErr.Retryable
}

// ExtractRetryAfter returns the provider's retry-after hint, if any.
func ExtractRetryAfter(err error) *time.Duration {
	if llmErr, ok := asError(err); ok {
		return llmErr.RetryAfter
	}
	return nil
}

// IsTransportError reports whether err is a failure to reach the provider at
// all (refused connection, DNS, reset) rather than an answer from it.
// Cancellation and deadlines are not transport errors.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		ProviderErr: providerErr,
	}
}

// NewRequestTooLargeError is not retryable: resending the same prompt fails the same way.
func NewRequestTooLargeError(message string, providerErr error) *Error {
	return &Error{Type: ErrorTypeRequestTooLarge, Message: message, ProviderErr: providerErr}
}

func NewProviderError(message string, providerErr error) *Error {
	return &Error{Type: ErrorTypeProvider, Message: message, ProviderErr: providerErr}
}

// NewNetworkError wraps a transport failure. The provider may be reachable on the next attempt.
func NewNetworkError(message string, providerErr error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: message, Retryable: true, ProviderErr: providerErr}
}

// NewTimeoutError is retryable: the next attempt gets a fresh deadline.
func NewTimeoutError(message string, timeout time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTimeout,
		Message:     fmt.Sprintf("%s (timeout %s)", message, timeout),
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

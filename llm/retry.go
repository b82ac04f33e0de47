package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryPolicy configures WithRetry. Zero values fall back to the defaults below.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

const (
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 30 * time.Second
	DefaultMaxElapsedTime  = 2 * time.Minute
)

// WithRetry decorates client with exponential backoff on retryable *Error values.
// Non-retryable errors are returned after the first attempt.
func WithRetry(client Client, policy RetryPolicy, logger zerolog.Logger) Client {
	if policy.MaxRetries == 0 {
		policy.MaxRetries = DefaultMaxRetries
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultInitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultMaxInterval
	}
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = DefaultMaxElapsedTime
	}
	return &retryClient{
		client: client,
		policy: policy,
		logger: logger.With().Str("component", "llm_retry").Logger(),
	}
}

type retryClient struct {
	client Client
	policy RetryPolicy
	logger zerolog.Logger
}

func (c *retryClient) newBackOff(ctx context.Context) backoff.BackOffContext {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.policy.InitialInterval
	eb.MaxInterval = c.policy.MaxInterval
	eb.MaxElapsedTime = c.policy.MaxElapsedTime
	eb.Multiplier = 2.0
	eb.RandomizationFactor = 0.2
	return backoff.WithContext(backoff.WithMaxRetries(eb, c.policy.MaxRetries), ctx)
}

// retryAfterBackOff waits at least the provider's retry-after hint, capped at max.
type retryAfterBackOff struct {
	backoff.BackOffContext
	hint time.Duration
	max  time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOffContext.NextBackOff()
	hint := min(b.hint, b.max)
	b.hint = 0
	if next == backoff.Stop || hint <= next {
		return next
	}
	return hint
}

// Synchronous implements Client.Synchronous.
func (c *retryClient) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	attempt := 0
	b := &retryAfterBackOff{BackOffContext: c.newBackOff(ctx), max: c.policy.MaxInterval}
	op := func() error {
		attempt++
		r, err := c.client.Synchronous(ctx, req)
		if err != nil {
			if !IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			if after := ExtractRetryAfter(err); after != nil {
				b.hint = *after
			}
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn().
			Err(err).
			Str("errorType", string(TypeOf(err))).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying LLM request")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

var _ Client = (*retryClient)(nil)

package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client provides a provider-neutral interface for making LLM API calls.
// Implementations should handle provider-specific details internally.
type Client interface {
	// Synchronous sends a request and returns a complete response.
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}

// Middleware provides hooks for decorating Client calls.
// This allows adding cross-cutting concerns like logging or request shaping.
type Middleware interface {
	// BeforeRequest is called before making an API request.
	// It can modify the request or return an error to abort the request.
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)

	// AfterResponse is called after receiving a response.
	// It can modify the response or return an error.
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError is called when an error occurs.
	// It can return a modified error or nil to use the original error.
	OnError(ctx context.Context, req *Request, err error) error
}

// MiddlewareFunc is a function type that implements Middleware.
type MiddlewareFunc struct {
	BeforeRequestFunc func(ctx context.Context, req *Request) (*Request, error)
	AfterResponseFunc func(ctx context.Context, req *Request, resp *Response) (*Response, error)
	OnErrorFunc       func(ctx context.Context, req *Request, err error) error
}

// BeforeRequest calls the BeforeRequestFunc if set.
func (f MiddlewareFunc) BeforeRequest(ctx context.Context, req *Request) (*Request, error) {
	if f.BeforeRequestFunc != nil {
		return f.BeforeRequestFunc(ctx, req)
	}
	return req, nil
}

// AfterResponse calls the AfterResponseFunc if set.
func (f MiddlewareFunc) AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	if f.AfterResponseFunc != nil {
		return f.AfterResponseFunc(ctx, req, resp)
	}
	return resp, nil
}

// OnError calls the OnErrorFunc if set.
func (f MiddlewareFunc) OnError(ctx context.Context, req *Request, err error) error {
	if f.OnErrorFunc != nil {
		return f.OnErrorFunc(ctx, req, err)
	}
	return err
}

// WrapWithMiddleware wraps a Client with middleware and returns a new Client.
func WrapWithMiddleware(client Client, middleware ...Middleware) Client {
	if len(middleware) == 0 {
		return client
	}
	return &clientWithMiddleware{
		client:     client,
		middleware: middleware,
	}
}

// clientWithMiddleware wraps a Client with middleware.
type clientWithMiddleware struct {
	client     Client
	middleware []Middleware
}

// Synchronous implements Client.Synchronous with middleware support.
func (c *clientWithMiddleware) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	for _, mw := range c.middleware {
		var err error
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.client.Synchronous(ctx, req)
	if err != nil {
		original := err
		for _, mw := range c.middleware {
			err = mw.OnError(ctx, req, err)
			if err == nil {
				err = original
				break // Middleware handled the error
			}
		}
		return nil, err
	}

	// AfterResponse runs in reverse order so the outermost middleware sees the final response
	for i := len(c.middleware) - 1; i >= 0; i-- {
		var err error
		resp, err = c.middleware[i].AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// NewLoggingMiddleware logs latency and token usage of every call.
func NewLoggingMiddleware(logger zerolog.Logger) Middleware {
	logger = logger.With().Str("component", "llm").Logger()
	var started sync.Map // *Request -> time.Time
	return MiddlewareFunc{
		BeforeRequestFunc: func(ctx context.Context, req *Request) (*Request, error) {
			started.Store(req, time.Now())
			logger.Debug().
				Str("model", req.Model).
				Int("messages", len(req.Messages)).
				Int64("maxTokens", req.MaxTokens).
				Msg("LLM request")
			return req, nil
		},
		AfterResponseFunc: func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
			ev := logger.Info().
				Str("model", req.Model).
				Str("stopReason", resp.StopReason)
			if t, ok := started.LoadAndDelete(req); ok {
				ev = ev.Dur("latency", time.Since(t.(time.Time)))
			}
			if resp.Usage != nil {
				ev = ev.Int64("inputTokens", resp.Usage.InputTokens).
					Int64("outputTokens", resp.Usage.OutputTokens)
			}
			ev.Msg("LLM response")
			return resp, nil
		},
		OnErrorFunc: func(ctx context.Context, req *Request, err error) error {
			started.Delete(req)
			logger.Error().Err(err).Str("model", req.Model).Msg("LLM request failed")
			return err
		},
	}
}

// Ensure clientWithMiddleware implements Client
var _ Client = (*clientWithMiddleware)(nil)

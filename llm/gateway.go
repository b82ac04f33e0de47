package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultGatewayTimeout bounds a single generation call.
	DefaultGatewayTimeout = 30 * time.Second
	// DefaultGatewayMaxTokens is the completion budget used when none is configured.
	DefaultGatewayMaxTokens = 1024
)

// GatewayConfig holds the request defaults applied to every prompt.
type GatewayConfig struct {
	Model       string
	System      string
	MaxTokens   int64
	Temperature *float64
	Timeout     time.Duration
}

// Gateway turns a prompt string into a response string with a single blocking call.
// It is the only entry point the workflow uses to reach a model.
type Gateway struct {
	client Client
	cfg    GatewayConfig
	logger zerolog.Logger
}

// NewGateway wraps client with prompt-level defaults and a per-call timeout.
func NewGateway(client Client, cfg GatewayConfig, logger zerolog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGatewayTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultGatewayMaxTokens
	}
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

type generateResult struct {
	resp *Response
	err  error
}

// Generate sends prompt as a single user message and returns the concatenated text of the reply.
// The call returns once the configured timeout elapses even if the provider ignores ctx.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("gateway has no client")
	}

	req := &Request{
		Model:       g.cfg.Model,
		System:      g.cfg.System,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages:    []Message{NewTextMessage(RoleUser, prompt)},
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		resp, err := g.client.Synchronous(callCtx, req)
		done <- generateResult{resp: resp, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = generateResult{err: callCtx.Err()}
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			g.logger.Error().
				Dur("timeout", g.cfg.Timeout).
				Str("model", g.cfg.Model).
				Msg("generation timed out")
			return "", NewTimeoutError("generation timed out", g.cfg.Timeout, res.err)
		}
		g.logger.Warn().
			Err(res.err).
			Str("errorType", string(TypeOf(res.err))).
			Str("model", g.cfg.Model).
			Msg("generation failed")
		return "", fmt.Errorf("generate: %w", res.err)
	}

	text := res.resp.Text()
	g.logger.Debug().
		Int("promptChars", len(prompt)).
		Int("responseChars", len(text)).
		Msg("generation completed")
	return text, nil
}

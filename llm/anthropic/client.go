package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aschepis/backscratcher/study/llm"
	"github.com/rs/zerolog"
)

const defaultRetryAfter = 60 * time.Second

// AnthropicClient implements the llm.Client interface for Anthropic's API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// NewAnthropicClient creates a new AnthropicClient with the given API key.
// Extra request options (base URL, HTTP client) are passed through to the SDK.
func NewAnthropicClient(apiKey, model string, logger zerolog.Logger, opts ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	// Retries are owned by llm.WithRetry.
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(reqOpts...)
	return &AnthropicClient{
		client: &client,
		model:  model,
		logger: logger.With().Str("component", "anthropic").Logger(),
	}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *AnthropicClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: req.MaxTokens,
		Messages:  ToMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertAnthropicError(err)
	}

	content := make([]llm.ContentBlock, 0, len(message.Content))
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			content = append(content, llm.ContentBlock{
				Type: llm.ContentBlockTypeText,
				Text: block.Text,
			})
		}
	}

	usage := &llm.Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}
	c.logger.Debug().
		Int64("input_tokens", usage.InputTokens).
		Int64("output_tokens", usage.OutputTokens).
		Msg("message completed")

	return &llm.Response{
		Content:    content,
		Usage:      usage,
		StopReason: string(message.StopReason),
	}, nil
}

// ToMessageParams converts llm messages to Anthropic message params.
// System messages are folded into user turns; the system prompt travels in MessageNewParams.System.
func ToMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			if block.Type == llm.ContentBlockTypeText {
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			}
		}
		if msg.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// convertAnthropicError converts SDK errors to llm.Error types.
func convertAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		if llm.IsTransportError(err) {
			return llm.NewNetworkError("Anthropic unreachable", err)
		}
		return llm.NewProviderError("Anthropic API error", err)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError("Anthropic rate limit", &retryAfter, err)
	case http.StatusRequestEntityTooLarge:
		return llm.NewRequestTooLargeError("Anthropic request too large", err)
	case http.StatusBadRequest:
		return &llm.Error{
			Type:        llm.ErrorTypeInvalidRequest,
			Message:     "Anthropic invalid request",
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "Anthropic server error",
			Retryable:   true,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "Anthropic API error",
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	}
}

var _ llm.Client = (*AnthropicClient)(nil)

package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aschepis/backscratcher/study/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI API errors don't expose retry-after headers.
const defaultRetryAfter = 60 * time.Second

// HuggingFaceRouterURL is the OpenAI-compatible endpoint of the Hugging Face inference router.
const HuggingFaceRouterURL = "https://router.huggingface.co/v1"

// OpenAIClient implements the llm.Client interface for OpenAI-compatible chat APIs.
type OpenAIClient struct {
	client *openai.Client
	model  string // Default model to use if not specified in request
}

// NewOpenAIClient creates a new OpenAIClient.
// If baseURL is empty, it will use the default OpenAI API endpoint.
func NewOpenAIClient(apiKey, baseURL, model, organization string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *OpenAIClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
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

	msgs := ToOpenAIMessages(req.Messages)
	if req.System != "" {
		msgs = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		}}, msgs...)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertOpenAIError(err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]
	content := make([]llm.ContentBlock, 0, 1)
	if choice.Message.Content != "" {
		content = append(content, llm.ContentBlock{
			Type: llm.ContentBlockTypeText,
			Text: choice.Message.Content,
		})
	}

	stopReason := "stop"
	if choice.FinishReason == openai.FinishReasonLength {
		stopReason = "max_tokens"
	}

	return &llm.Response{
		Content: content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		StopReason: stopReason,
	}, nil
}

// ToOpenAIMessages converts llm messages to chat completion messages.
func ToOpenAIMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case llm.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case llm.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: llm.TextOf(msg),
		})
	}
	return out
}

// convertOpenAIError converts OpenAI API errors to llm.Error types.
func convertOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return statusError(reqErr.HTTPStatusCode, reqErr.Error(), err)
		}
		if llm.IsTransportError(err) {
			return llm.NewNetworkError("OpenAI unreachable", err)
		}
		return llm.NewProviderError("OpenAI API error", err)
	}
	return statusError(apiErr.HTTPStatusCode, apiErr.Message, err)
}

func statusError(status int, message string, err error) error {
	switch status {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError(fmt.Sprintf("OpenAI rate limit: %s", message), &retryAfter, err)
	case http.StatusRequestEntityTooLarge:
		return llm.NewRequestTooLargeError(fmt.Sprintf("OpenAI request too large: %s", message), err)
	case http.StatusBadRequest:
		return &llm.Error{
			Type:        llm.ErrorTypeInvalidRequest,
			Message:     fmt.Sprintf("OpenAI invalid request: %s", message),
			StatusCode:  status,
			ProviderErr: err,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("OpenAI server error: %s", message),
			Retryable:   true,
			StatusCode:  status,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("OpenAI API error: %s", message),
			StatusCode:  status,
			ProviderErr: err,
		}
	}
}

var _ llm.Client = (*OpenAIClient)(nil)

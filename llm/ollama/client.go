package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aschepis/backscratcher/study/llm"
	"github.com/ollama/ollama/api"
)

// OllamaClient implements the llm.Client interface for Ollama's API.
type OllamaClient struct {
	client *api.Client
	model  string // Default model to use if not specified in request
}

// NewOllamaClient creates a new OllamaClient.
// If host is empty, it will use the default from environment (OLLAMA_HOST or http://localhost:11434).
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	var client *api.Client

	if host != "" {
		baseURL, err := ParseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &OllamaClient{
		client: client,
		model:  model,
	}, nil
}

// ParseHost parses a host string into a URL, defaulting the scheme to http.
func ParseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Synchronous implements llm.Client.Synchronous.
func (c *OllamaClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
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

	msgs := ToOllamaMessages(req.Messages)
	if req.System != "" {
		msgs = append([]api.Message{{Role: "system", Content: req.System}}, msgs...)
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   new(bool),
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Options["temperature"] = *req.Temperature
	}

	var chatResp api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	})
	if err != nil {
		return nil, convertOllamaError(err)
	}

	content := make([]llm.ContentBlock, 0, 1)
	if chatResp.Message.Content != "" {
		content = append(content, llm.ContentBlock{
			Type: llm.ContentBlockTypeText,
			Text: chatResp.Message.Content,
		})
	}

	stopReason := "stop"
	if chatResp.DoneReason == "length" {
		stopReason = "max_tokens"
	}

	return &llm.Response{
		Content: content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.PromptEvalCount),
			OutputTokens: int64(chatResp.EvalCount),
		},
		StopReason: stopReason,
	}, nil
}

// ToOllamaMessages converts llm messages to Ollama chat messages.
func ToOllamaMessages(msgs []llm.Message) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		role := "user"
		switch msg.Role {
		case llm.RoleAssistant:
			role = "assistant"
		case llm.RoleSystem:
			role = "system"
		}
		out = append(out, api.Message{Role: role, Content: llm.TextOf(msg)})
	}
	return out
}

func convertOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "ollama chat request failed",
			Retryable:   statusErr.StatusCode >= http.StatusInternalServerError,
			StatusCode:  statusErr.StatusCode,
			ProviderErr: err,
		}
	}
	if llm.IsTransportError(err) {
		return llm.NewNetworkError("ollama unreachable", err)
	}
	return llm.NewProviderError("ollama chat request failed", err)
}

var _ llm.Client = (*OllamaClient)(nil)

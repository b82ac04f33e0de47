package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aschepis/backscratcher/study/llm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient("", "claude-haiku-4-5", zerolog.Nop())
	assert.Error(t, err)
}

func TestSynchronous_TextBlocks(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",
			"content":[{"type":"text","text":"first"},{"type":"text","text":"second"}],
			"stop_reason":"end_turn",
			"usage":{"input_tokens":5,"output_tokens":2}
		}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient("key", "claude-haiku-4-5", zerolog.Nop(), option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := client.Synchronous(context.Background(), &llm.Request{
		System:    "tutor",
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "first\nsecond", resp.Text())
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(5), resp.Usage.InputTokens)

	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
}

func TestSynchronous_BadRequestIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient("key", "claude-haiku-4-5", zerolog.Nop(), option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Synchronous(context.Background(), &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		MaxTokens: 16,
	})
	require.Error(t, err)
	assert.False(t, llm.IsRetryableError(err))
}

func TestToMessageParams_Roles(t *testing.T) {
	params := ToMessageParams([]llm.Message{
		llm.NewTextMessage(llm.RoleUser, "q"),
		llm.NewTextMessage(llm.RoleAssistant, "a"),
	})
	require.Len(t, params, 2)
	assert.Equal(t, "user", string(params[0].Role))
	assert.Equal(t, "assistant", string(params[1].Role))
}

func TestSynchronous_UnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := NewAnthropicClient("key", "claude-haiku-4-5", zerolog.Nop(), option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Synchronous(context.Background(), &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		MaxTokens: 16,
	})
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeNetwork, llm.TypeOf(err))
	assert.True(t, llm.IsRetryableError(err))
}

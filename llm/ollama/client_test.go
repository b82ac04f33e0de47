package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aschepis/backscratcher/study/llm"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHost(t *testing.T) {
	u, err := ParseHost("localhost:11434")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", u.String())

	u, err = ParseHost("https://ollama.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
}

func TestSynchronous_NonStreamingChat(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gemma3","message":{"role":"assistant","content":"explicação"},"done":true,"done_reason":"stop","prompt_eval_count":11,"eval_count":3}`))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "gemma3")
	require.NoError(t, err)

	resp, err := client.Synchronous(context.Background(), &llm.Request{
		System:    "sys",
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "o que é BGP?")},
		MaxTokens: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "explicação", resp.Text())
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, int64(11), resp.Usage.InputTokens)
	assert.Equal(t, int64(3), resp.Usage.OutputTokens)

	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "o que é BGP?", got.Messages[1].Content)
	assert.EqualValues(t, 100, got.Options["num_predict"])
}

func TestSynchronous_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"model loading"}`))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "gemma3")
	require.NoError(t, err)

	_, err = client.Synchronous(context.Background(), &llm.Request{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "oi")},
	})
	require.Error(t, err)
	assert.True(t, llm.IsRetryableError(err))
}

func TestSynchronous_RequiresModel(t *testing.T) {
	client, err := NewOllamaClient("localhost:1", "")
	require.NoError(t, err)
	_, err = client.Synchronous(context.Background(), &llm.Request{})
	assert.Error(t, err)
}

func TestSynchronous_UnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := NewOllamaClient(srv.URL, "gemma3")
	require.NoError(t, err)

	_, err = client.Synchronous(context.Background(), &llm.Request{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "oi")},
	})
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeNetwork, llm.TypeOf(err))
	assert.True(t, llm.IsRetryableError(err))
}

// Package mem0 is a memory.Backend over the hosted Mem0 memory API.
//
// The API only exposes query-based search, so Client does not implement
// memory.Lister and memory.Store.ListAll falls back to seed searches.
package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/study/memory"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the hosted Mem0 endpoint.
const DefaultBaseURL = "https://api.mem0.ai"

// Client talks to the Mem0 REST API. MemoryID is sent as agent_id.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Mem0 client. An empty baseURL uses DefaultBaseURL; a
// nil httpClient uses one with a 30s timeout.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("mem0 api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "mem0").Logger(),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type addRequest struct {
	Messages []message      `json:"messages"`
	UserID   string         `json:"user_id"`
	AgentID  string         `json:"agent_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchRequest struct {
	Query   string `json:"query"`
	UserID  string `json:"user_id"`
	AgentID string `json:"agent_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type memoryItem struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	Message   string         `json:"message"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// Add implements memory.Backend. Mem0 extracts memories from the messages
// asynchronously, so the returned records may be fewer than msgs.
func (c *Client) Add(ctx context.Context, scope memory.Scope, msgs []memory.Message) ([]memory.Record, error) {
	if len(msgs) == 0 {
		return nil, errors.New("no messages to add")
	}
	req := addRequest{
		UserID:   scope.UserID,
		AgentID:  scope.MemoryID,
		Messages: make([]message, 0, len(msgs)),
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	if len(msgs) == 1 {
		req.Metadata = map[string]any{"role": string(msgs[0].Role)}
	}

	var items []memoryItem
	if err := c.post(ctx, "/v1/memories/", req, &items); err != nil {
		return nil, err
	}
	return c.toRecords(items), nil
}

// Search implements memory.Backend. SearchQuery.After is not supported by
// the API and is left to the caller.
func (c *Client) Search(ctx context.Context, scope memory.Scope, q memory.SearchQuery) ([]memory.Record, error) {
	var items []memoryItem
	err := c.post(ctx, "/v1/memories/search/", searchRequest{
		Query:   q.Text,
		UserID:  scope.UserID,
		AgentID: scope.MemoryID,
		Limit:   q.Limit,
	}, &items)
	if err != nil {
		return nil, err
	}
	return c.toRecords(items), nil
}

func (c *Client) post(ctx context.Context, path string, body any, out *[]memoryItem) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mem0 %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return decodeItems(raw, out)
}

// decodeItems accepts both a bare array and a {"results": [...]} envelope.
func decodeItems(raw []byte, out *[]memoryItem) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var envelope struct {
		Results []memoryItem `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	*out = envelope.Results
	return nil
}

func (c *Client) toRecords(items []memoryItem) []memory.Record {
	records := make([]memory.Record, 0, len(items))
	for _, item := range items {
		content := item.Memory
		if content == "" {
			content = item.Message
		}
		role := memory.RoleAssistant
		if r, ok := item.Metadata["role"].(string); ok && memory.Role(r).Valid() {
			role = memory.Role(r)
		}
		created, err := ParseTimestamp(item.CreatedAt)
		if err != nil {
			c.logger.Debug().Str("id", item.ID).Str("created_at", item.CreatedAt).Msg("unparseable timestamp")
		}
		records = append(records, memory.Record{
			ID:        item.ID,
			CreatedAt: created,
			Role:      role,
			Content:   content,
		})
	}
	return records
}

// ParseTimestamp parses Mem0 timestamps. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// APIError is a non-2xx response from Mem0.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mem0: status %d: %s", e.StatusCode, e.Body)
}

var _ memory.Backend = (*Client)(nil)

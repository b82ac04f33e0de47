package llm

import (
	"encoding/json"
	"strings"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single message in a conversation.
// This is provider-neutral and can represent user, assistant, or system messages.
type Message struct {
	Role    MessageRole
	Content []ContentBlock
}

// ContentBlock represents a single content block within a message.
type ContentBlock struct {
	Type ContentBlockType
	Text string
}

// ContentBlockType represents the type of content block.
type ContentBlockType string

const (
	ContentBlockTypeText ContentBlockType = "text"
)

// Request represents a complete LLM API request.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Response represents a complete LLM API response.
type Response struct {
	Content    []ContentBlock
	Usage      *Usage
	StopReason string
}

// Text joins every text block of the response with newlines.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type == ContentBlockTypeText && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	// Provider-specific usage fields can be added here
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// NewTextMessage creates a new message with a single text block.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{
				Type: ContentBlockTypeText,
				Text: text,
			},
		},
	}
}

// TextOf concatenates the text blocks of a message.
func TextOf(msg Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type != ContentBlockTypeText {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.Text)
	}
	return b.String()
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

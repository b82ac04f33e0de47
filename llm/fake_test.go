package llm

import (
	"context"
	"sync"
)

// scriptedClient returns the queued responses/errors in order and records every request.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*Response
	errs      []error
	requests  []*Request
	block     bool
}

func (c *scriptedClient) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	idx := len(c.requests) - 1
	block := c.block
	c.mu.Unlock()

	if block {
		<-make(chan struct{}) // ignores ctx on purpose
	}
	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx < len(c.responses) {
		return c.responses[idx], nil
	}
	return &Response{Content: []ContentBlock{{Type: ContentBlockTypeText, Text: "ok"}}}, nil
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func textResponse(text string) *Response {
	return &Response{Content: []ContentBlock{{Type: ContentBlockTypeText, Text: text}}}
}

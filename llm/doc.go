// Package llm provides a provider-neutral abstraction layer for Large Language Model (LLM) APIs.
//
// This package defines common types, interfaces, and utilities that allow the codebase
// to work with multiple LLM providers (Anthropic, OpenAI-compatible endpoints, Ollama)
// without being tightly coupled to any specific provider's SDK.
//
// # Core Concepts
//
//  1. Messages: The Message type represents a conversation message with a role
//     (user, assistant, system) and text content blocks.
//
//  2. Client Interface: The Client interface provides Synchronous() for blocking calls.
//     Implementations live in the anthropic, openai and ollama subpackages.
//
//  3. Gateway: Gateway reduces a Client to prompt-in/text-out and bounds every call
//     with a timeout. This is what the workflow engine talks to.
//
//  4. Middleware: The Middleware interface allows adding cross-cutting concerns like
//     logging without modifying provider implementations. WithRetry adds exponential
//     backoff for retryable errors.
//
//  5. Errors: The Error type provides provider-neutral error handling with support for
//     rate limits, timeouts, retryable errors, and provider-specific error details.
//
// Usage Example
//
//	base, _ := openai.NewOpenAIClient(apiKey, "https://router.huggingface.co/v1", "google/gemma-3-12b-it", "")
//	client := llm.WrapWithMiddleware(
//	    llm.WithRetry(base, llm.RetryPolicy{MaxRetries: 3}, logger),
//	    llm.NewLoggingMiddleware(logger),
//	)
//	gw := llm.NewGateway(client, llm.GatewayConfig{MaxTokens: 1024, Timeout: 30 * time.Second}, logger)
//	text, err := gw.Generate(ctx, "Explain photosynthesis.")
//
// # Extension Points
//
// To add a new LLM provider:
//  1. Implement the Client interface
//  2. Translate between provider-specific types and llm package types
//  3. Handle provider-specific errors and translate to llm.Error types
package llm

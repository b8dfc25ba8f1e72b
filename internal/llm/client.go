// Package llm is a minimal chat-completion client for OpenAI-compatible
// endpoints such as a local Ollama or vLLM server.
package llm

import "context"

// Request is a single-turn chat completion request.
type Request struct {
	Model  string
	System string
	Prompt string
	// Temperature defaults to 0.2 when zero.
	Temperature float64
}

// Response is the assistant reply and its token accounting.
type Response struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// Client completes chat requests.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

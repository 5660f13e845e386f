package providers

import "context"

// ChatRequest is a single completion request: one user message plus an
// optional system instruction. No history; every call is independent.
type ChatRequest struct {
	System    string
	Message   string
	Model     string // empty = provider default
	MaxTokens int    // 0 = provider default
}

// ChatResponse carries the raw completion text, passed through unmodified.
type ChatResponse struct {
	Content string
	Model   string
	Usage   *Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is the model client abstraction. Implemented by *GeminiProvider;
// tests substitute fakes.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

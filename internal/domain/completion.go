package domain

import "context"

// Completer is the shared language model contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CompletionRequest is a single prompt for a chat-style model.
type CompletionRequest struct {
	Model       string // empty selects the provider default
	System      string
	Prompt      string
	JSON        bool // ask the provider for a JSON object response
	Temperature float32
	MaxTokens   int
	Cacheable   bool // identical requests may be served from the completion cache
}

// CompletionResult carries the generated text and token usage through the decorator chain.
type CompletionResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cached           bool
}

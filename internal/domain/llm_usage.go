package domain

import (
	"context"
	"sync"
)

type llmUsageKey struct{}

// LLMUsage collects language model token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the completer decorator writes after each call; the handler reads it for response headers.
// Background work started by the request may keep writing after the handler returns.
type LLMUsage struct {
	mu          sync.Mutex
	totalTokens int
	calls       int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *LLMUsage) {
	u := &LLMUsage{}
	return context.WithValue(ctx, llmUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *LLMUsage {
	u, _ := ctx.Value(llmUsageKey{}).(*LLMUsage)
	return u
}

// AddTokens records one model call and its consumed tokens.
func (u *LLMUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.totalTokens += n
	u.calls++
	u.mu.Unlock()
}

// Snapshot returns the tokens and calls recorded so far.
func (u *LLMUsage) Snapshot() (totalTokens, calls int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens, u.calls
}

package completioncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/keywordlab/internal/domain"
)

var cacheableReq = domain.CompletionRequest{
	Model:     "gpt-4o-mini",
	Prompt:    "suggest keywords for matcha",
	JSON:      true,
	Cacheable: true,
}

func TestComplete_CacheMiss(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: `{"keywords":[]}`, Model: "gpt-4o-mini", TotalTokens: 42}}
	cc, ms := newTestCachedCompleter(t, inner, time.Hour)

	var storedTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		storedTTL = ttl
		return nil
	}

	result, err := cc.Complete(context.Background(), cacheableReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalTokens != 42 || result.Cached {
		t.Errorf("unexpected result: %+v", result)
	}
	if storedTTL != time.Hour {
		t.Errorf("expected SETEX with 1h ttl, got %v", storedTTL)
	}
}

func TestComplete_CacheHit(t *testing.T) {
	inner := &mockCompleter{}
	cc, ms := newTestCachedCompleter(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{"text":"cached","model":"m"}`), nil
	}

	result, err := cc.Complete(context.Background(), cacheableReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "cached" || !result.Cached || result.TotalTokens != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times on cache hit", inner.calls)
	}
}

func TestComplete_NotCacheableBypasses(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "persona"}}
	cc, ms := newTestCachedCompleter(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		t.Fatal("cache read for non-cacheable request")
		return nil, nil
	}

	req := cacheableReq
	req.Cacheable = false
	if _, err := cc.Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d", inner.calls)
	}
}

func TestComplete_InnerError(t *testing.T) {
	inner := &mockCompleter{err: domain.ErrLLMProviderError}
	cc, ms := newTestCachedCompleter(t, inner, 0)

	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Fatal("failed completion must not be cached")
		return nil
	}

	_, err := cc.Complete(context.Background(), cacheableReq)
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestComplete_CorruptEntryFallsThrough(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "fresh"}}
	cc, ms := newTestCachedCompleter(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("not json"), nil
	}

	result, err := cc.Complete(context.Background(), cacheableReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "fresh" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestCacheKey_DependsOnPromptAndModel(t *testing.T) {
	a := cacheKey(cacheableReq)
	b := cacheableReq
	b.Prompt = "other"
	c := cacheableReq
	c.Model = "other"
	if a == cacheKey(b) || a == cacheKey(c) {
		t.Error("cache key must change with prompt and model")
	}
	if a != cacheKey(cacheableReq) {
		t.Error("cache key must be deterministic")
	}
}

package budget

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

// Completer wraps a domain.Completer with token budget enforcement and per-request usage.
// Transport metrics (requests, duration, tokens) are recorded in the provider clients.
type Completer struct {
	inner    domain.Completer
	provider string
	budget   Checker
	logger   *zap.Logger
}

// NewCompleter wraps a completer. budget may be nil (unlimited).
func NewCompleter(inner domain.Completer, provider string, budget Checker, logger *zap.Logger) *Completer {
	return &Completer{
		inner:    inner,
		provider: provider,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates and records consumed tokens.
// Cache hits consume nothing.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.log(ctx).Error("LLM budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", req.Model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := c.inner.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.log(ctx).Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", req.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	if !result.Cached {
		domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
		if c.budget != nil && result.TotalTokens > 0 {
			c.budget.Record(int64(result.TotalTokens))
			setRemaining("llm", c.budget)
		}
	}

	c.log(ctx).Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", result.Model),
		zap.Duration("duration", duration),
		zap.Bool("cached", result.Cached),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func setRemaining(resource string, b Checker) {
	metrics.BudgetRemaining.WithLabelValues(resource, "daily").Set(float64(b.RemainingDaily()))
	metrics.BudgetRemaining.WithLabelValues(resource, "monthly").Set(float64(b.RemainingMonthly()))
}

// log returns the request logger carried by ctx, or the service logger.
func (c *Completer) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, c.logger)
}

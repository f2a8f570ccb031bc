package budget

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// VolumeLookup wraps a domain.VolumeLookup with a keyword budget.
// Every keyword sent upstream counts as one unit.
type VolumeLookup struct {
	inner  domain.VolumeLookup
	budget Checker
	logger *zap.Logger
}

// NewVolumeLookup wraps a volume lookup. budget may be nil (unlimited).
func NewVolumeLookup(inner domain.VolumeLookup, budget Checker, logger *zap.Logger) *VolumeLookup {
	return &VolumeLookup{inner: inner, budget: budget, logger: logger}
}

// Lookup checks the budget, delegates and records the number of keywords sent.
func (v *VolumeLookup) Lookup(ctx context.Context, req domain.VolumeRequest) ([]keyword.Item, error) {
	if len(req.Keywords) == 0 {
		return nil, nil
	}
	if v.budget != nil {
		if err := v.budget.Check(ctx); err != nil {
			v.log(ctx).Warn("Volume budget exceeded",
				zap.Int("keywords", len(req.Keywords)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("budget check: %w", err)
		}
	}

	items, err := v.inner.Lookup(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("volume lookup: %w", err)
	}

	if v.budget != nil {
		v.budget.Record(int64(len(req.Keywords)))
		setRemaining("volume", v.budget)
	}
	return items, nil
}

// log returns the request logger carried by ctx, or the service logger.
func (v *VolumeLookup) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, v.logger)
}

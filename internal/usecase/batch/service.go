package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	dombatch "github.com/kailas-cloud/keywordlab/internal/domain/batch"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
	"github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
)

// MaxBatchSize is the maximum number of seed queries per batch request.
const MaxBatchSize = 50

// Service runs batch research with per-item results.
type Service struct {
	researcher   Researcher
	maxBatchSize int
	logger       *zap.Logger
}

// New creates a batch service.
func New(researcher Researcher, logger *zap.Logger) *Service {
	return &Service{researcher: researcher, maxBatchSize: MaxBatchSize, logger: logger}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// MaxBatchSize returns the configured batch limit.
func (s *Service) MaxBatchSize() int { return s.maxBatchSize }

// Research processes the queries one at a time. A failing item does not stop
// the batch. A cancelled context fails the remaining items.
func (s *Service) Research(ctx context.Context, items []keyword.Request) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.maxBatchSize {
		for i, item := range items {
			results[i] = dombatch.NewError(i, item.Input.Query, "",
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidInput))
		}
		return results
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.NewError(i, item.Input.Query, "", err)
			continue
		}
		res := s.researcher.ProcessAndSaveQuery(ctx, item)
		if !res.Success {
			results[i] = dombatch.NewError(i, item.Input.Query, res.ResearchID, res.Err)
			continue
		}
		results[i] = dombatch.NewOK(i, item.Input.Query, res.ResearchID)
	}

	ok, failed := dombatch.Summary(results)
	s.log(ctx).Info("Batch research finished",
		zap.Int("items", len(items)),
		zap.Int("ok", ok),
		zap.Int("failed", failed),
	)
	return results
}

// log returns the request logger carried by ctx, or the service logger.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}

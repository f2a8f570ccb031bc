package keyword

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// Request is one seed query for ProcessAndSaveQuery.
type Request struct {
	Input            research.Input
	FilterZeroVolume bool
	Alphabet         bool
	Symbols          bool
}

// Result reports the outcome of ProcessAndSaveQuery. ResearchID is set once the
// record exists, even when a later step failed.
type Result struct {
	Success    bool
	ResearchID string
	Err        error
}

// Service runs the keyword research pipeline and owns research record reads.
type Service struct {
	repo        Repository
	aggregator  *Aggregator
	enricher    *Enricher
	maxVolume   int
	defaultPage int
	maxPage     int
	logger      *zap.Logger
}

// New creates a keyword research service.
func New(repo Repository, aggregator *Aggregator, enricher *Enricher, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		aggregator:  aggregator,
		enricher:    enricher,
		maxVolume:   MaxVolumeCheckKeywords,
		defaultPage: 20,
		maxPage:     100,
		logger:      logger,
	}
}

// WithMaxVolumeKeywords configures the volume lookup cap.
func (s *Service) WithMaxVolumeKeywords(n int) *Service {
	if n > 0 {
		s.maxVolume = n
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPage = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPage = maxPageSize
	}
	return s
}

// ProcessAndSaveQuery expands a seed query into a volume-annotated keyword list and
// stores it as a new research record. Failures, panics included, come back as
// Result{Success: false}.
func (s *Service) ProcessAndSaveQuery(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log(ctx).Error("Keyword pipeline panicked",
				zap.Any("panic", r),
				zap.String("research_id", res.ResearchID),
				zap.Stack("stack"),
			)
			res = Result{ResearchID: res.ResearchID, Err: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()

	in, err := req.Input.Normalize()
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)}
	}

	cands := s.aggregator.Aggregate(ctx, AggregateInput{
		Query:        in.Query,
		Region:       in.Region,
		Language:     in.Language,
		SearchEngine: in.SearchEngine,
		Alphabet:     req.Alphabet,
		Symbols:      req.Symbols,
	})

	toCheck := Prioritize(cands.Pool, cands.AI, cands.Engine, s.maxVolume)
	volumes := s.enricher.Enrich(ctx, toCheck, in.Region, in.Language, in.SourceURL())
	items := Merge(volumes, cands.Pool, req.FilterZeroVolume)

	rec, err := s.repo.Create(ctx, in)
	if err != nil {
		s.log(ctx).Error("Failed to create research", zap.String("query", in.Query), zap.Error(err))
		return Result{Err: fmt.Errorf("create research: %w", err)}
	}
	res.ResearchID = rec.ID()

	if err := s.repo.UpdateKeywords(ctx, rec.ID(), items); err != nil {
		s.log(ctx).Error("Failed to save keywords", zap.String("research_id", rec.ID()), zap.Error(err))
		return Result{ResearchID: rec.ID(), Err: fmt.Errorf("save keywords: %w", err)}
	}

	s.log(ctx).Info("Research saved",
		zap.String("research_id", rec.ID()),
		zap.String("query", in.Query),
		zap.Int("candidates", len(cands.Pool)),
		zap.Int("volume_checked", len(toCheck)),
		zap.Int("volume_results", len(volumes)),
		zap.Int("keywords", len(items)),
		zap.Bool("filter_zero_volume", req.FilterZeroVolume),
		zap.Duration("duration", time.Since(start)),
	)
	return Result{Success: true, ResearchID: rec.ID()}
}

// Get returns a research record.
func (s *Service) Get(ctx context.Context, id string) (research.Research, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return research.Research{}, fmt.Errorf("get research: %w", err)
	}
	return r, nil
}

// List returns one page of research records, newest first.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error) {
	if limit <= 0 {
		limit = s.defaultPage
	}
	if limit > s.maxPage {
		limit = s.maxPage
	}
	items, next, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list research: %w", err)
	}
	return items, next, nil
}

// Delete removes a research record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete research: %w", err)
	}
	return nil
}

// Message returns the failure message, "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// log returns the request logger carried by ctx, or the service logger.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}

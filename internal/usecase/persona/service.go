package persona

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// Result reports the outcome of SavePersona.
type Result struct {
	Success bool
	Err     error
}

// Message returns the failure message, "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Service generates personas and merges them into research records by cluster name.
type Service struct {
	repo      Repository
	describer Describer
	logger    *zap.Logger

	// mu serializes the read-merge-write of persona lists within this process.
	mu sync.Mutex
}

// New creates a persona service.
func New(repo Repository, describer Describer, logger *zap.Logger) *Service {
	return &Service{repo: repo, describer: describer, logger: logger}
}

// SavePersona generates the persona of one cluster and upserts it. Failures,
// panics included, come back as Result{Success: false}.
func (s *Service) SavePersona(ctx context.Context, researchID, clusterName string, keywords []string, model string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log(ctx).Error("Persona generation panicked",
				zap.String("research_id", researchID),
				zap.String("cluster", clusterName),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			res = Result{Err: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()

	if err := s.Generate(ctx, researchID, clusterName, keywords, model); err != nil {
		s.log(ctx).Warn("Failed to save persona",
			zap.String("research_id", researchID),
			zap.String("cluster", clusterName),
			zap.Error(err),
		)
		return Result{Err: err}
	}
	return Result{Success: true}
}

// Generate describes the cluster's audience and upserts the persona by exact
// cluster name. Empty keywords fall back to the stored cluster.
func (s *Service) Generate(ctx context.Context, researchID, clusterName string, keywords []string, model string) error {
	if researchID == "" || strings.TrimSpace(clusterName) == "" {
		return fmt.Errorf("research id and cluster name are required: %w", domain.ErrInvalidInput)
	}

	keywords = keyword.UniqueStrings(keywords)
	if len(keywords) == 0 {
		rec, err := s.repo.Get(ctx, researchID)
		if err != nil {
			return fmt.Errorf("get research: %w", err)
		}
		cl, ok := rec.Clusters()[clusterName]
		if !ok {
			return fmt.Errorf("cluster %q: %w", clusterName, domain.ErrClusterNotFound)
		}
		keywords = cl.Keywords
	}

	desc, err := s.describer.DescribePersona(ctx, clusterName, keywords, model)
	if err != nil {
		return fmt.Errorf("describe persona: %w", err)
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return fmt.Errorf("describe persona: empty description: %w", domain.ErrMalformedOutput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.repo.Get(ctx, researchID)
	if err != nil {
		return fmt.Errorf("get research: %w", err)
	}
	set := persona.NewSet(rec.Personas())
	added := set.Upsert(clusterName, desc, keywords)

	if err := s.repo.UpdatePersonas(ctx, researchID, set.List()); err != nil {
		return fmt.Errorf("save personas: %w", err)
	}

	s.log(ctx).Info("Persona saved",
		zap.String("research_id", researchID),
		zap.String("cluster", clusterName),
		zap.Bool("added", added),
		zap.Int("personas", set.Len()),
	)
	return nil
}

// log returns the request logger carried by ctx, or the service logger.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}

package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// MinClusterInput is the fewest keywords the clustering prompt accepts.
const MinClusterInput = 5

// Service implements the language model collaborators of the pipeline:
// keyword suggestions, clustering and persona descriptions.
type Service struct {
	completer   Completer
	models      Models
	temperature float32
	logger      *zap.Logger
}

// New creates an assistant over a completer.
func New(c Completer, models Models, logger *zap.Logger) *Service {
	return &Service{completer: c, models: models, temperature: 0.3, logger: logger}
}

// WithTemperature overrides the sampling temperature.
func (s *Service) WithTemperature(t float32) *Service {
	if t >= 0 {
		s.temperature = t
	}
	return s
}

// SuggestKeywords asks the model for up to count related keywords. Responses are
// cacheable: the same seed yields the same prompt.
func (s *Service) SuggestKeywords(ctx context.Context, query, region, language string, count int) ([]string, error) {
	if count <= 0 {
		count = 10
	}
	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model:       s.models.Suggest,
		System:      suggestSystem,
		Prompt:      suggestPrompt(query, region, language, count),
		JSON:        true,
		Temperature: s.temperature,
		Cacheable:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest keywords: %w", err)
	}

	kws, err := parseKeywords(res.Text)
	if err != nil {
		s.log(ctx).Warn("Unparseable suggestion output", zap.String("model", res.Model), zap.Int("length", len(res.Text)))
		return nil, err
	}
	kws = keyword.UniqueStrings(kws)
	if len(kws) > count {
		kws = kws[:count]
	}
	return kws, nil
}

// ClusterKeywords groups keywords into named clusters. model overrides the configured one.
func (s *Service) ClusterKeywords(ctx context.Context, keywords []string, model string) (map[string][]string, error) {
	keywords = keyword.UniqueStrings(keywords)
	if len(keywords) < MinClusterInput {
		return nil, domain.NewInsufficientKeywords(len(keywords), MinClusterInput)
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model:       pick(model, s.models.Cluster),
		System:      clusterSystem,
		Prompt:      clusterPrompt(keywords),
		JSON:        true,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("cluster keywords: %w", err)
	}

	raw, err := parseClusters(res.Text)
	if err != nil {
		s.log(ctx).Warn("Unparseable clustering output", zap.String("model", res.Model), zap.Int("length", len(res.Text)))
		return nil, err
	}

	out := make(map[string][]string, len(raw))
	for name, kws := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = append(out[name], kws...)
	}
	return out, nil
}

// DescribePersona writes the audience description of one cluster.
func (s *Service) DescribePersona(ctx context.Context, clusterName string, keywords []string, model string) (string, error) {
	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model:       pick(model, s.models.Persona),
		System:      personaSystem,
		Prompt:      personaPrompt(clusterName, keywords),
		JSON:        true,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("describe persona: %w", err)
	}
	return parseDescription(res.Text)
}

func pick(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}

// log returns the request logger carried by ctx, or the service logger.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}

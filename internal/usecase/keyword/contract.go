package keyword

import (
	"context"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// Suggester produces language model keyword suggestions (source A).
type Suggester interface {
	SuggestKeywords(ctx context.Context, query, region, language string, count int) ([]string, error)
}

// Autosuggester returns search engine autosuggest completions (source B).
type Autosuggester interface {
	Autosuggest(ctx context.Context, req domain.AutosuggestRequest) ([]string, error)
}

// Repository persists research records.
type Repository interface {
	Create(ctx context.Context, in research.Input) (research.Research, error)
	Get(ctx context.Context, id string) (research.Research, error)
	List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error)
	UpdateKeywords(ctx context.Context, id string, items []keyword.Item) error
	Delete(ctx context.Context, id string) error
}

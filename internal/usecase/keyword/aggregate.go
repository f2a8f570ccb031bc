package keyword

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// DefaultSuggestionCount is how many suggestions source A is asked for.
const DefaultSuggestionCount = 10

// AggregateInput is the seed query and the source options.
type AggregateInput struct {
	Query        string
	Region       string
	Language     string
	SearchEngine string
	Alphabet     bool
	Symbols      bool
}

// Candidates is the aggregated candidate pool plus the per-source lists.
type Candidates struct {
	Pool   []string
	AI     []string
	Engine []string
}

// Aggregator fans out to the suggestion sources and merges their output.
type Aggregator struct {
	suggester     Suggester
	autosuggester Autosuggester
	count         int
	logger        *zap.Logger
}

// NewAggregator creates an aggregator. Either source may be nil (treated as empty).
func NewAggregator(s Suggester, a Autosuggester, count int, logger *zap.Logger) *Aggregator {
	if count <= 0 {
		count = DefaultSuggestionCount
	}
	return &Aggregator{suggester: s, autosuggester: a, count: count, logger: logger}
}

// Aggregate queries both sources concurrently. A failing source contributes nothing;
// Aggregate itself never fails.
func (a *Aggregator) Aggregate(ctx context.Context, in AggregateInput) Candidates {
	var ai, engine []string

	// Sources swallow their own errors so one failure never cancels the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.suggester == nil {
			return nil
		}
		out, err := a.suggester.SuggestKeywords(gctx, in.Query, in.Region, in.Language, a.count)
		if err != nil {
			a.log(ctx).Warn("Suggestion source failed",
				zap.String("source", "llm"),
				zap.String("query", in.Query),
				zap.Error(err),
			)
			return nil
		}
		ai = out
		return nil
	})
	g.Go(func() error {
		if a.autosuggester == nil {
			return nil
		}
		out, err := a.autosuggester.Autosuggest(gctx, domain.AutosuggestRequest{
			Query:    in.Query,
			Region:   in.Region,
			Language: in.Language,
			Engine:   in.SearchEngine,
			Alphabet: in.Alphabet,
			Symbols:  in.Symbols,
		})
		if err != nil {
			a.log(ctx).Warn("Suggestion source failed",
				zap.String("source", "autosuggest"),
				zap.String("query", in.Query),
				zap.Error(err),
			)
			return nil
		}
		engine = out
		return nil
	})
	_ = g.Wait()

	ai = cleanList(ai)
	engine = cleanList(engine)

	all := make([]string, 0, 1+len(ai)+len(engine))
	all = append(all, in.Query)
	all = append(all, ai...)
	all = append(all, engine...)

	return Candidates{
		Pool:   keyword.UniqueStrings(all),
		AI:     ai,
		Engine: engine,
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// log returns the request logger carried by ctx, or the service logger.
func (a *Aggregator) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, a.logger)
}

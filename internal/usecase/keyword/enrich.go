package keyword

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
)

// Enricher attaches search metrics to keywords. Enrichment is best-effort.
type Enricher struct {
	lookup domain.VolumeLookup
	logger *zap.Logger
}

// NewEnricher creates an enricher. A nil lookup disables enrichment.
func NewEnricher(lookup domain.VolumeLookup, logger *zap.Logger) *Enricher {
	return &Enricher{lookup: lookup, logger: logger}
}

// Enrich looks up the whole batch in one call. Errors and empty
// responses yield an empty slice.
func (e *Enricher) Enrich(ctx context.Context, keywords []string, region, language, sourceURL string) []keyword.Item {
	if e.lookup == nil || len(keywords) == 0 {
		return []keyword.Item{}
	}

	items, err := e.lookup.Lookup(ctx, domain.VolumeRequest{
		Keywords:  keywords,
		Region:    region,
		Language:  language,
		SourceURL: sourceURL,
	})
	if err != nil {
		e.log(ctx).Warn("Volume lookup failed, continuing without volumes",
			zap.Int("keywords", len(keywords)),
			zap.Error(err),
		)
		return []keyword.Item{}
	}
	if len(items) == 0 {
		e.log(ctx).Info("Volume lookup returned no results", zap.Int("keywords", len(keywords)))
		return []keyword.Item{}
	}
	return items
}

// log returns the request logger carried by ctx, or the service logger.
func (e *Enricher) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, e.logger)
}

package batch

import (
	"context"

	"github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
)

// Researcher runs the keyword pipeline for one seed query.
type Researcher interface {
	ProcessAndSaveQuery(ctx context.Context, req keyword.Request) keyword.Result
}

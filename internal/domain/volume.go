package domain

import (
	"context"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
)

// VolumeRequest is one batch lookup against the search volume provider.
type VolumeRequest struct {
	Keywords  []string
	Region    string
	Language  string
	SourceURL string // set when the research seed was a URL
}

// VolumeLookup returns per-keyword search metrics for a batch of keywords.
type VolumeLookup interface {
	Lookup(ctx context.Context, req VolumeRequest) ([]keyword.Item, error)
}

// AutosuggestRequest describes one search-engine autosuggest expansion.
type AutosuggestRequest struct {
	Query    string
	Region   string
	Language string
	Engine   string // google (default) or youtube
	Alphabet bool   // also query "<seed> a" .. "<seed> z"
	Symbols  bool   // also query question/comparison modifiers
}

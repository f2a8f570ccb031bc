package keywordlab

import "github.com/kailas-cloud/keywordlab/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrResearchNotFound     = domain.ErrResearchNotFound
	ErrInvalidInput         = domain.ErrInvalidInput
	ErrClusteringInProgress = domain.ErrClusteringInProgress
	ErrClusteringCompleted  = domain.ErrClusteringCompleted
	ErrInsufficientKeywords = domain.ErrInsufficientKeywords
	ErrClusterNotFound      = domain.ErrClusterNotFound
	ErrRateLimited          = domain.ErrRateLimited
	ErrQuotaExceeded        = domain.ErrQuotaExceeded
	ErrLLMProviderError     = domain.ErrLLMProviderError
	ErrMalformedOutput      = domain.ErrMalformedOutput
	ErrVolumeProviderError  = domain.ErrVolumeProviderError
	ErrSuggestProviderError = domain.ErrSuggestProviderError
	ErrUnavailable          = domain.ErrUnavailable
)

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrResearchNotFound signals a missing research record.
	ErrResearchNotFound = errors.New("research not found")
	// ErrInvalidInput signals a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClusteringInProgress signals that a clustering run already holds the record.
	ErrClusteringInProgress = errors.New("clustering already in progress")
	// ErrClusteringCompleted signals that clustering already finished for the record.
	ErrClusteringCompleted = errors.New("clustering already completed")
	// ErrInsufficientKeywords signals too few unique keywords to cluster.
	ErrInsufficientKeywords = errors.New("insufficient keywords")
	// ErrClusterNotFound signals an unknown cluster name.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted usage budget.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrLLMProviderError signals a language model provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrMalformedOutput signals model output that could not be parsed.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrVolumeProviderError signals a search volume provider failure.
	ErrVolumeProviderError = errors.New("volume provider error")
	// ErrSuggestProviderError signals an autosuggest provider failure.
	ErrSuggestProviderError = errors.New("suggest provider error")
	// ErrUnavailable signals a service that is shutting down.
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// InsufficientKeywordsError carries the unique keyword count that failed the minimum.
type InsufficientKeywordsError struct {
	Have int
	Need int
}

func (e *InsufficientKeywordsError) Error() string {
	return fmt.Sprintf("%s: need at least %d unique keywords, have %d",
		ErrInsufficientKeywords.Error(), e.Need, e.Have)
}

func (e *InsufficientKeywordsError) Unwrap() error { return ErrInsufficientKeywords }

// NewInsufficientKeywords creates an insufficient keywords error.
func NewInsufficientKeywords(have, need int) error {
	return &InsufficientKeywordsError{Have: have, Need: need}
}

package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals an invalid filter set.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidUser signals a missing or malformed user identifier.
	ErrInvalidUser = errors.New("invalid user")
	// ErrInvalidCandidate signals a catalog record that failed boundary validation.
	ErrInvalidCandidate = errors.New("invalid candidate")
	// ErrEmptyInput signals an attempt to embed empty text.
	ErrEmptyInput = errors.New("empty embedding input")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCatalogUnavailable signals a catalog or order storage failure.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

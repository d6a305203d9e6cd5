package prodsearch

import (
	"errors"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidFilter          = domain.ErrInvalidFilter
	ErrInvalidUser            = domain.ErrInvalidUser
	ErrEmptyInput             = domain.ErrEmptyInput
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrCatalogUnavailable     = domain.ErrCatalogUnavailable
)

// ErrOrdersNotConfigured is returned by Recommend when the client has no order source.
var ErrOrdersNotConfigured = errors.New("prodsearch: order source not configured (use WithOrders or WithPostgres)")

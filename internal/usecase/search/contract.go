package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// CatalogReader fetches candidate products.
type CatalogReader interface {
	FindWithFilters(ctx context.Context, filters filter.Set, limit int) ([]product.Candidate, error)
}

// Ranker orders candidates by similarity to a query text.
type Ranker interface {
	Rank(ctx context.Context, operation, text string, candidates []product.Candidate) ([]result.Scored, error)
}

// ResultCache stores ranked result lists.
type ResultCache interface {
	GetResults(ctx context.Context, key string) ([]result.Scored, bool)
	SetResults(ctx context.Context, key string, items []result.Scored, ttl time.Duration)
}

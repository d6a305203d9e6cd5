package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/cachekey"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

const operation = "search"

// Service answers free-text product searches: cache, then catalog, then semantic ranking.
type Service struct {
	catalog CatalogReader
	ranker  Ranker
	cache   ResultCache
	cfg     domain.PipelineConfig
	logger  *zap.Logger
}

// New creates a search service.
func New(catalog CatalogReader, ranker Ranker, cache ResultCache, cfg domain.PipelineConfig, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, ranker: ranker, cache: cache, cfg: cfg, logger: logger}
}

// Search returns up to result.TopK products for q under filters, best match first.
// An empty query browses the filtered catalog in storage order with score 0.
func (s *Service) Search(ctx context.Context, q string, filters filter.Set) ([]result.Scored, error) {
	start := time.Now()

	normalized, err := query.Parse(q, s.cfg.MaxQueryLength)
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries ErrInvalidQuery
	}

	key := cachekey.Search(normalized, filters)
	if items, ok := s.cache.GetResults(ctx, key); ok {
		observe(start, "cache")
		return items, nil
	}

	candidates, err := s.catalog.FindWithFilters(ctx, filters, s.cfg.MaxCandidates)
	if err != nil {
		observe(start, "error")
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	var items []result.Scored
	source := "computed"
	switch {
	case len(candidates) == 0:
		items, source = []result.Scored{}, "empty"
	case normalized == "":
		items, source = result.Browse(candidates), "browse"
	default:
		// Same casing as the cache key, so every query sharing a key ranks identically.
		items, err = s.ranker.Rank(ctx, operation, strings.ToLower(normalized), candidates)
		if err != nil {
			observe(start, "error")
			return nil, fmt.Errorf("rank candidates: %w", err)
		}
	}

	s.cache.SetResults(ctx, key, items, s.cfg.SearchTTL)
	observe(start, source)

	s.logger.Debug("Search completed",
		zap.String("source", source),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(items)),
	)
	return items, nil
}

func observe(start time.Time, source string) {
	metrics.PipelineDuration.WithLabelValues(operation, source).Observe(time.Since(start).Seconds())
}

package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/cachekey"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

const operation = "recommendations"

// Service recommends products from a user's purchase history.
type Service struct {
	orders  OrderReader
	catalog CatalogReader
	ranker  Ranker
	cache   ResultCache
	cfg     domain.PipelineConfig
	logger  *zap.Logger
}

// New creates a recommendation service.
func New(
	orders OrderReader, catalog CatalogReader, ranker Ranker,
	cache ResultCache, cfg domain.PipelineConfig, logger *zap.Logger,
) *Service {
	return &Service{orders: orders, catalog: catalog, ranker: ranker, cache: cache, cfg: cfg, logger: logger}
}

// Recommend returns up to result.TopK catalog products closest to the user's purchase profile.
// Users without purchase history get an empty list; that outcome is not cached.
func (s *Service) Recommend(ctx context.Context, userID int64) ([]result.Scored, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidUser, userID)
	}
	start := time.Now()

	key := cachekey.Recommendations(userID)
	if items, ok := s.cache.GetResults(ctx, key); ok {
		observe(start, "cache")
		return items, nil
	}

	past, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		observe(start, "error")
		return nil, fmt.Errorf("find orders: %w", err)
	}

	profile := order.Profile(past)
	if profile == "" {
		observe(start, "empty")
		return []result.Scored{}, nil
	}

	candidates, err := s.catalog.FindAll(ctx, s.cfg.MaxCandidates)
	if err != nil {
		observe(start, "error")
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	items, err := s.ranker.Rank(ctx, operation, profile, candidates)
	if err != nil {
		observe(start, "error")
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	s.cache.SetResults(ctx, key, items, s.cfg.RecommendationsTTL)
	observe(start, "computed")

	s.logger.Debug("Recommendations computed",
		zap.Int64("user_id", userID),
		zap.Int("orders", len(past)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(items)),
	)
	return items, nil
}

func observe(start time.Time, source string) {
	metrics.PipelineDuration.WithLabelValues(operation, source).Observe(time.Since(start).Seconds())
}

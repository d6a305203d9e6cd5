package invalidation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/cachekey"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// EventType names a catalog or order change that can stale cached results.
type EventType string

// Supported event types.
const (
	ProductCreated EventType = "product.created"
	ProductUpdated EventType = "product.updated"
	ProductDeleted EventType = "product.deleted"
	OrderCreated   EventType = "order.created"
)

// Event is a change notification, delivered over HTTP or Postgres NOTIFY.
type Event struct {
	Type   EventType `json:"type"`
	UserID int64     `json:"user_id,omitempty"`
}

var (
	// ErrUnknownEvent signals an event type the service does not handle.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrInvalidPrefix signals a purge outside the result cache namespaces.
	ErrInvalidPrefix = errors.New("invalid purge prefix")
)

// Service removes cached results made stale by catalog and order changes.
// Cache TTLs remain the backstop when an event is lost.
type Service struct {
	cache  Cache
	logger *zap.Logger
}

// New creates an invalidation service.
func New(cache Cache, logger *zap.Logger) *Service {
	return &Service{cache: cache, logger: logger}
}

// Handle dispatches an event and returns the number of removed keys.
func (s *Service) Handle(ctx context.Context, ev Event) (int, error) {
	switch ev.Type {
	case ProductCreated, ProductUpdated, ProductDeleted:
		return s.ProductChanged(ctx)
	case OrderCreated:
		return s.OrderPlaced(ctx, ev.UserID)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// ProductChanged drops every cached search and recommendation list:
// any of them may include or miss the changed product.
func (s *Service) ProductChanged(ctx context.Context) (int, error) {
	total, err := s.deletePrefixes(ctx, "product", cachekey.SearchPrefix, cachekey.RecommendationsPrefix)
	if err != nil {
		s.logger.Warn("Product invalidation incomplete", zap.Int("deleted", total), zap.Error(err))
		return total, fmt.Errorf("invalidate product caches: %w", err)
	}
	return total, nil
}

// deletePrefixes keeps going after a failed prefix so one bad scan does not leave the rest stale.
func (s *Service) deletePrefixes(ctx context.Context, reason string, prefixes ...string) (int, error) {
	total := 0
	var errs []error
	for _, prefix := range prefixes {
		n, err := s.cache.DeletePattern(ctx, prefix)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	metrics.CacheInvalidationsTotal.WithLabelValues(reason).Add(float64(total))
	return total, errors.Join(errs...)
}

// OrderPlaced drops the buyer's cached recommendations.
func (s *Service) OrderPlaced(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidUser, userID)
	}
	existed, err := s.cache.Delete(ctx, cachekey.Recommendations(userID))
	if err != nil {
		return 0, fmt.Errorf("invalidate recommendations of user %d: %w", userID, err)
	}
	if !existed {
		return 0, nil
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("order").Inc()
	return 1, nil
}

// Purge drops every cached result under prefix. An empty prefix clears the whole result cache.
// Prefixes outside the result namespaces are rejected so budget counters sharing the store survive.
func (s *Service) Purge(ctx context.Context, prefix string) (int, error) {
	prefixes := []string{cachekey.SearchPrefix, cachekey.RecommendationsPrefix}
	if prefix != "" {
		if !strings.HasPrefix(prefix, cachekey.SearchPrefix) && !strings.HasPrefix(prefix, cachekey.RecommendationsPrefix) {
			return 0, fmt.Errorf("%w: %q must start with %q or %q",
				ErrInvalidPrefix, prefix, cachekey.SearchPrefix, cachekey.RecommendationsPrefix)
		}
		prefixes = []string{prefix}
	}

	n, err := s.deletePrefixes(ctx, "purge", prefixes...)
	if err != nil {
		return n, fmt.Errorf("purge %q: %w", prefix, err)
	}
	s.logger.Info("Result cache purged", zap.String("prefix", prefix), zap.Int("deleted", n))
	return n, nil
}

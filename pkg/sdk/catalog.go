package prodsearch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// Catalog supplies active products. limit <= 0 means no limit.
// Implementations may also provide Ping(ctx) error for health checks.
type Catalog interface {
	FindProducts(ctx context.Context, f Filter, limit int) ([]Product, error)
}

// Orders supplies a user's past orders, most recent first.
type Orders interface {
	FindOrders(ctx context.Context, userID int64) ([]Order, error)
}

// catalogSource is what the search and recommendation pipelines consume.
type catalogSource interface {
	FindWithFilters(ctx context.Context, filters filter.Set, limit int) ([]product.Candidate, error)
	FindAll(ctx context.Context, limit int) ([]product.Candidate, error)
	Ping(ctx context.Context) error
}

type orderSource interface {
	FindByUser(ctx context.Context, userID int64) ([]order.PastOrder, error)
}

// catalogAdapter wraps a public Catalog. Records failing validation are skipped, like the Postgres reader does.
type catalogAdapter struct {
	inner  Catalog
	logger *slog.Logger
}

func (a *catalogAdapter) FindWithFilters(
	ctx context.Context, filters filter.Set, limit int,
) ([]product.Candidate, error) {
	products, err := a.inner.FindProducts(ctx, filterFromSet(filters), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	out := make([]product.Candidate, 0, len(products))
	for _, p := range products {
		c := toCandidate(p)
		if err := c.Validate(); err != nil {
			if a.logger != nil {
				a.logger.Warn("skipping invalid product", "product_id", p.ID, "error", err)
			}
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *catalogAdapter) FindAll(ctx context.Context, limit int) ([]product.Candidate, error) {
	return a.FindWithFilters(ctx, filter.Set{}, limit)
}

func (a *catalogAdapter) Ping(ctx context.Context) error {
	p, ok := a.inner.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("catalog ping: %w", err)
	}
	return nil
}

type ordersAdapter struct {
	inner Orders
}

func (a *ordersAdapter) FindByUser(ctx context.Context, userID int64) ([]order.PastOrder, error) {
	orders, err := a.inner.FindOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	return toPastOrders(orders), nil
}

// noOrders backs Recommend when no order source is configured.
type noOrders struct{}

func (noOrders) FindByUser(context.Context, int64) ([]order.PastOrder, error) {
	return nil, ErrOrdersNotConfigured
}

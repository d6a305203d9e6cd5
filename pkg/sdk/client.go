package prodsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	dbMemory "github.com/kailas-cloud/prodsearch/internal/db/memory"
	"github.com/kailas-cloud/prodsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	ordersrepo "github.com/kailas-cloud/prodsearch/internal/repository/orders"
	"github.com/kailas-cloud/prodsearch/internal/repository/resultcache"
	openaiEmb "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	invalidationuc "github.com/kailas-cloud/prodsearch/internal/usecase/invalidation"
	rankinguc "github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
	recommenduc "github.com/kailas-cloud/prodsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "prodsearch:"
)

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, q string, filters filter.Set) ([]result.Scored, error)
}

type recommendUseCase interface {
	Recommend(ctx context.Context, userID int64) ([]result.Scored, error)
}

type invalidationUseCase interface {
	ProductChanged(ctx context.Context) (int, error)
	OrderPlaced(ctx context.Context, userID int64) (int, error)
}

// Client is the prodsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store           db.Store
	catalogDB       *sqlx.DB
	searchSvc       searchUseCase
	recommendSvc    recommendUseCase
	invalidationSvc invalidationUseCase
	healthSvc       healthUseCase
	obs             *observer
}

// New creates a Client, connecting to the cache store and (with WithPostgres) the catalog.
// The provided context bounds the initial connection checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{driver: "memory", keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil && cfg.openAI == nil {
		return nil, errors.New("prodsearch: embedder required (use WithEmbedder or WithOpenAI)")
	}
	if cfg.catalog == nil && cfg.postgresDSN == "" {
		return nil, errors.New("prodsearch: catalog required (use WithCatalog or WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("prodsearch: cache not ready: %w", err)
	}

	var catalogDB *sqlx.DB
	if cfg.postgresDSN != "" && (cfg.catalog == nil || cfg.orders == nil) {
		catalogDB, err = postgres.Open(ctx, postgres.Config{DSN: cfg.postgresDSN})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("prodsearch: %w", err)
		}
	}

	return wireClient(store, catalogDB, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("prodsearch: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "memory":
		s, err := dbMemory.NewStore(dbMemory.Config{MaxEntries: cfg.maxEntries})
		if err != nil {
			return nil, fmt.Errorf("prodsearch: create memory store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("prodsearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, catalogDB *sqlx.DB, cfg *clientConfig, obs *observer) *Client {
	logger := internalLogger(cfg.logger)

	var catalog catalogSource
	if cfg.catalog != nil {
		catalog = &catalogAdapter{inner: cfg.catalog, logger: cfg.logger}
	} else {
		catalog = catalogrepo.New(catalogDB, logger)
	}

	var orders orderSource = noOrders{}
	switch {
	case cfg.orders != nil:
		orders = &ordersAdapter{inner: cfg.orders}
	case catalogDB != nil:
		orders = ordersrepo.New(catalogDB, 0)
	}

	base, model, checker := buildBaseEmbedder(cfg, logger)
	embedder := embeddinguc.NewFanout(
		embeddinguc.NewInstrumentedEmbedder(base, "sdk", model, nil, logger),
		embeddinguc.FanoutConfig{Concurrency: cfg.concurrency},
		logger,
	)

	pipeline := domain.DefaultPipelineConfig()
	if cfg.searchTTL > 0 {
		pipeline.SearchTTL = cfg.searchTTL
	}
	if cfg.recommendationsTTL > 0 {
		pipeline.RecommendationsTTL = cfg.recommendationsTTL
	}
	if cfg.maxCandidates > 0 {
		pipeline.MaxCandidates = cfg.maxCandidates
	}

	cache := resultcache.New(store, cfg.keyPrefix, metrics.ResultCacheTotal, logger)
	ranker := rankinguc.New(embedder, logger)

	return &Client{
		store:           store,
		catalogDB:       catalogDB,
		searchSvc:       searchuc.New(catalog, ranker, cache, pipeline, logger),
		recommendSvc:    recommenduc.New(orders, catalog, ranker, cache, pipeline, logger),
		invalidationSvc: invalidationuc.New(cache, logger),
		healthSvc:       healthuc.New(catalog, cache, checker),
		obs:             obs,
	}
}

// buildBaseEmbedder returns the provider, its model label and an optional health checker.
func buildBaseEmbedder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, string, healthuc.EmbeddingChecker) {
	if cfg.openAI != nil {
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   cfg.openAI.apiKey,
			BaseURL:  cfg.openAI.baseURL,
			Model:    cfg.openAI.model,
			Provider: "openai",
			Logger:   logger,
		})
		return e, cfg.openAI.model, e
	}

	// Pass nil interface, not a typed nil, when the embedder cannot report health.
	var checker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(HealthChecker); ok {
		checker = hc
	}
	return &embedderAdapter{inner: cfg.embedder}, "custom", checker
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.catalogDB != nil {
		_ = c.catalogDB.Close()
	}
}

// Search ranks catalog products against query. An empty query browses the
// filtered catalog in storage order. At most 10 hits are returned.
func (c *Client) Search(ctx context.Context, query string, opts ...FilterOption) (hits []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, len(hits), err) }()

	filters, err := buildFilter(opts)
	if err != nil {
		return nil, err
	}
	items, err := c.searchSvc.Search(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return toHits(items), nil
}

// Recommend ranks catalog products against the user's purchase history.
// Users without orders get an empty list.
func (c *Client) Recommend(ctx context.Context, userID int64) (hits []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, len(hits), err) }()

	items, err := c.recommendSvc.Recommend(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return toHits(items), nil
}

// InvalidateProducts drops every cached search and recommendation list.
// Call it after creating, updating or deleting a product.
func (c *Client) InvalidateProducts(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("invalidate.products", start, -1, err) }()

	n, err = c.invalidationSvc.ProductChanged(ctx)
	if err != nil {
		return n, fmt.Errorf("invalidate products: %w", err)
	}
	return n, nil
}

// InvalidateUser drops the user's cached recommendations. Call it after an order.
func (c *Client) InvalidateUser(ctx context.Context, userID int64) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("invalidate.user", start, -1, err) }()

	n, err = c.invalidationSvc.OrderPlaced(ctx, userID)
	if err != nil {
		return n, fmt.Errorf("invalidate user %d: %w", userID, err)
	}
	return n, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

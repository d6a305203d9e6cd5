package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/db"
	dbMemory "github.com/kailas-cloud/prodsearch/internal/db/memory"
	"github.com/kailas-cloud/prodsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/prodsearch/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	ordersrepo "github.com/kailas-cloud/prodsearch/internal/repository/orders"
	"github.com/kailas-cloud/prodsearch/internal/repository/resultcache"
	chiTransport "github.com/kailas-cloud/prodsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	"github.com/kailas-cloud/prodsearch/internal/transport/pqnotify"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	invalidationuc "github.com/kailas-cloud/prodsearch/internal/usecase/invalidation"
	rankinguc "github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
	recommenduc "github.com/kailas-cloud/prodsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/prodsearch/internal/usecase/usage"
	"github.com/kailas-cloud/prodsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting prodsearch API server",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	catalogDB, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.Catalog.DSN,
		MaxOpenConns:    cfg.Catalog.MaxOpenConns,
		MaxIdleConns:    cfg.Catalog.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Catalog.ConnMaxLifetimeSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to catalog", zap.Error(err))
	}
	defer func() { _ = catalogDB.Close() }()
	logger.Info("Connected to catalog")

	// Explicit registration, no init().
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	vecCfg, provCfg, err := cfg.Embedding.Active()
	if err != nil {
		logger.Fatal("Invalid embedding config", zap.Error(err))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var (
		budgetChecker embeddinguc.BudgetChecker
		budgetReader  usageuc.BudgetReader
	)
	if provCfg.Budget.Enabled() {
		action := embeddinguc.BudgetActionWarn
		if provCfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		tracker := embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			Provider:     vecCfg.Provider,
			KeyPrefix:    cfg.Cache.KeyPrefix,
			DailyLimit:   provCfg.Budget.DailyTokenLimit,
			MonthlyLimit: provCfg.Budget.MonthlyTokenLimit,
			Action:       action,
		}, logger).WithStore(ctx, budgetrepo.New(store))
		budgetChecker = tracker
		budgetReader = tracker
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		User:       provCfg.User,
		Provider:   vecCfg.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	embedder := buildEmbedder(base, vecCfg, cfg.Embedding, budgetChecker, logger)
	logger.Info("Embedder created",
		zap.String("provider", vecCfg.Provider),
		zap.String("model", vecCfg.Model),
		zap.Int("concurrency", cfg.Embedding.Concurrency),
	)

	catalog := catalogrepo.New(catalogDB, logger)
	orders := ordersrepo.New(catalogDB, cfg.Catalog.MaxOrders)
	cache := resultcache.New(store, cfg.Cache.KeyPrefix, metrics.ResultCacheTotal, logger)

	pipeline := domain.PipelineConfig{
		MaxCandidates:      cfg.Search.MaxCandidates,
		SearchTTL:          time.Duration(cfg.Cache.SearchTTLSec) * time.Second,
		RecommendationsTTL: time.Duration(cfg.Cache.RecommendationsTTLSec) * time.Second,
		MaxQueryLength:     cfg.Search.MaxQueryLength,
	}

	ranker := rankinguc.New(embedder, logger)
	searchSvc := searchuc.New(catalog, ranker, cache, pipeline, logger)
	recommendSvc := recommenduc.New(orders, catalog, ranker, cache, pipeline, logger)
	invalidationSvc := invalidationuc.New(cache, logger)
	healthSvc := healthuc.New(catalog, cache, base)
	usageSvc := usageuc.New(budgetReader)

	if cfg.Catalog.NotifyChannel != "" {
		listener := pqnotify.New(cfg.Catalog.DSN, cfg.Catalog.NotifyChannel, invalidationSvc, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Catalog listener stopped", zap.Error(err))
			}
		}()
	}

	server := chiTransport.NewServer(searchSvc, recommendSvc, invalidationSvc, healthSvc, usageSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.AuthConfig{
		APIKeys:   cfg.Auth.APIKeys,
		AdminKeys: cfg.Auth.AdminKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore picks the result cache backend. Valkey speaks the Redis protocol, so both use rueidis.
func openStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	case "memory":
		s, err := dbMemory.NewStore(dbMemory.Config{MaxEntries: cfg.MaxEntries})
		if err != nil {
			return nil, fmt.Errorf("memory store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Fanout.
func buildEmbedder(
	base domain.Embedder,
	vecCfg config.VectorizerConfig,
	embCfg config.EmbeddingConfig,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) *embeddinguc.Fanout {
	instrumented := embeddinguc.NewInstrumentedEmbedder(base, vecCfg.Provider, vecCfg.Model, budget, logger)
	return embeddinguc.NewFanout(instrumented, embeddinguc.FanoutConfig{
		Concurrency:       embCfg.Concurrency,
		RequestsPerSecond: embCfg.RequestsPerSecond,
		Burst:             embCfg.Burst,
	}, logger)
}

package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// DefaultConcurrency is the provider-wide cap on in-flight embed calls.
const DefaultConcurrency = 8

// FanoutConfig bounds concurrent provider calls.
type FanoutConfig struct {
	// Concurrency caps in-flight calls across all requests sharing the Fanout.
	Concurrency int
	// RequestsPerSecond enables a token-bucket limiter when > 0.
	RequestsPerSecond float64
	Burst             int
}

// Fanout embeds many texts concurrently under a shared semaphore and an optional rate limiter.
// A single failure cancels the remaining calls and fails the whole batch.
type Fanout struct {
	inner       domain.Embedder
	sem         *semaphore.Weighted
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
}

// NewFanout wraps inner with bounded concurrency.
func NewFanout(inner domain.Embedder, cfg FanoutConfig, logger *zap.Logger) *Fanout {
	n := cfg.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	f := &Fanout{
		inner:       inner,
		sem:         semaphore.NewWeighted(int64(n)),
		concurrency: n,
		logger:      logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = n
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return f
}

// Embed embeds a single text under the same limits as EmbedAll.
func (f *Fanout) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, domain.ErrEmptyInput
	}
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("acquire embed slot: %w", err)
	}
	defer f.sem.Release(1)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return domain.EmbeddingResult{}, fmt.Errorf("wait for rate limiter: %w", ctx.Err())
			}
			// Wait fails fast when the deadline cannot accommodate the next token.
			return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	metrics.EmbeddingInFlight.Inc()
	defer metrics.EmbeddingInFlight.Dec()

	res, err := f.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // already wrapped by the decorator chain
	}
	return res, nil
}

// EmbedAll embeds texts concurrently. Result vectors keep input order.
// Blank texts are rejected up front without any provider call.
func (f *Fanout) EmbedAll(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{}}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("text %d: %w", i, domain.ErrEmptyInput)
		}
	}
	metrics.EmbeddingFanoutSize.Observe(float64(len(texts)))

	embeddings := make([][]float32, len(texts))
	var promptTokens, totalTokens atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	// Per-batch goroutine cap; the shared semaphore bounds the provider.
	g.SetLimit(f.concurrency)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := f.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			embeddings[i] = res.Embedding
			promptTokens.Add(int64(res.PromptTokens))
			totalTokens.Add(int64(res.TotalTokens))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		// Dispatch stops early on a cancelled ctx without any goroutine failing.
		err = ctx.Err()
	}
	if err == nil {
		for i, v := range embeddings {
			if len(v) == 0 {
				err = fmt.Errorf("text %d: %w: empty vector", i, domain.ErrEmbeddingProviderError)
				break
			}
		}
	}
	if err != nil {
		f.logger.Warn("Embedding fan-out failed",
			zap.Int("texts", len(texts)),
			zap.Error(err),
		)
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed all: %w", err)
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: int(promptTokens.Load()),
		TotalTokens:  int(totalTokens.Load()),
	}, nil
}

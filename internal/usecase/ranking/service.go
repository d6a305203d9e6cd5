package ranking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/similarity"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// Service ranks catalog candidates by semantic similarity to a query text.
// Vectors are computed per request and never stored.
type Service struct {
	embed  BatchEmbedder
	logger *zap.Logger
}

// New creates a ranking service.
func New(embed BatchEmbedder, logger *zap.Logger) *Service {
	return &Service{embed: embed, logger: logger}
}

// Rank embeds text and every candidate's composite text, then returns the
// result.TopK candidates ordered by descending cosine similarity.
// operation labels metrics ("search" or "recommendations").
// Any embedding failure fails the whole call.
func (s *Service) Rank(
	ctx context.Context, operation, text string, candidates []product.Candidate,
) ([]result.Scored, error) {
	if len(candidates) == 0 {
		return []result.Scored{}, nil
	}

	// texts[0] is the query, texts[1:] mirror candidates.
	texts := make([]string, len(candidates)+1)
	texts[0] = text
	for i, c := range candidates {
		texts[i+1] = c.CompositeText()
	}

	batch, err := s.embed.EmbedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	if len(batch.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed candidates: got %d vectors for %d texts", len(batch.Embeddings), len(texts))
	}
	for i, v := range batch.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("embed candidates: text %d: %w: empty vector", i, domain.ErrEmbeddingProviderError)
		}
	}

	hits, err := similarity.TopK(batch.Embeddings[0], batch.Embeddings[1:], -1)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	degenerate := 0
	for _, h := range hits {
		if h.Score.Degenerate {
			degenerate++
			s.logger.Warn("Zero-norm embedding, similarity scored as 0",
				zap.String("operation", operation),
				zap.Int64("product_id", candidates[h.Index].ID),
			)
		}
	}
	if degenerate > 0 {
		metrics.SimilarityDegenerateTotal.Add(float64(degenerate))
	}
	metrics.CandidatesRanked.WithLabelValues(operation).Observe(float64(len(candidates)))

	n := min(len(hits), result.TopK)
	out := make([]result.Scored, n)
	for i, h := range hits[:n] {
		out[i] = result.Scored{Candidate: candidates[h.Index], Score: h.Score.Value}
	}

	s.logger.Debug("Candidates ranked",
		zap.String("operation", operation),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", n),
		zap.Int("tokens", batch.TotalTokens),
	)
	return out, nil
}

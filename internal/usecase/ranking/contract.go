package ranking

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// BatchEmbedder vectorizes many texts in one call, preserving input order.
type BatchEmbedder interface {
	EmbedAll(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

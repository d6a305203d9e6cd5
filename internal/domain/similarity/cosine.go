package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Score is a cosine similarity value in [-1, 1].
// Degenerate is set when either vector had zero norm and Value was forced to 0.
type Score struct {
	Value      float64
	Degenerate bool
}

// Cosine computes dot(a,b) / (|a|*|b|) in float64.
// A zero-norm input yields exactly 0 with Degenerate set; NaN and Inf never escape.
func Cosine(a, b []float32) (Score, error) {
	if len(a) != len(b) {
		return Score{}, fmt.Errorf("%w: %d vs %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return Score{Degenerate: true}, nil
	}

	v := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		// Non-finite components from the provider.
		return Score{Degenerate: true}, nil
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return Score{Value: v}, nil
}

// Hit is one ranked vector: its position in the input slice and its score.
type Hit struct {
	Index int
	Score Score
}

// TopK scores every vector against query and returns the best k, descending.
// Ties keep input order. k >= len(vectors) returns all of them.
func TopK(query []float32, vectors [][]float32, k int) ([]Hit, error) {
	hits := make([]Hit, len(vectors))
	for i, v := range vectors {
		s, err := Cosine(query, v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		hits[i] = Hit{Index: i, Score: s}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score.Value > hits[j].Score.Value
	})

	if k >= 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

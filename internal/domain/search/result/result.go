package result

import "github.com/kailas-cloud/prodsearch/internal/domain/product"

// TopK is the fixed number of results returned by search and recommendations.
const TopK = 10

// Scored is a candidate annotated with its cosine similarity in [-1, 1].
type Scored struct {
	Candidate product.Candidate
	Score     float64
}

// Browse returns up to TopK candidates in storage order with score 0.
// Used when there is no query text to rank against.
func Browse(candidates []product.Candidate) []Scored {
	n := min(len(candidates), TopK)
	out := make([]Scored, n)
	for i := range n {
		out[i] = Scored{Candidate: candidates[i]}
	}
	return out
}

// IDs returns candidate identifiers in result order.
func IDs(items []Scored) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.Candidate.ID
	}
	return ids
}

package resultcache

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// entryVersion is bumped whenever the stored layout changes; older entries read as misses.
const entryVersion = 1

type entry struct {
	Version int         `json:"v"`
	Items   []scoredDTO `json:"items"`
}

type scoredDTO struct {
	Product productDTO `json:"product"`
	Score   float64    `json:"score"`
}

type productDTO struct {
	ID          int64    `json:"id"`
	ShopID      int64    `json:"shop_id"`
	CategoryID  int64    `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Rating      float64  `json:"rating"`
	Images      []string `json:"images,omitempty"`
	CreatedAt   int64    `json:"created_at,omitempty"`
}

func fromDomain(items []result.Scored) entry {
	out := make([]scoredDTO, len(items))
	for i, it := range items {
		c := it.Candidate
		out[i] = scoredDTO{
			Product: productDTO{
				ID:          c.ID,
				ShopID:      c.ShopID,
				CategoryID:  c.CategoryID,
				Name:        c.Name,
				Description: c.Description,
				Category:    c.Category,
				Price:       c.Price,
				Stock:       c.Stock,
				Rating:      c.Rating,
				Images:      c.Images,
				CreatedAt:   c.CreatedAt,
			},
			Score: it.Score,
		}
	}
	return entry{Version: entryVersion, Items: out}
}

func (e entry) toDomain() ([]result.Scored, error) {
	if e.Version != entryVersion {
		return nil, fmt.Errorf("entry version %d, want %d", e.Version, entryVersion)
	}
	out := make([]result.Scored, len(e.Items))
	for i, it := range e.Items {
		p := it.Product
		c := product.Candidate{
			ID:          p.ID,
			ShopID:      p.ShopID,
			CategoryID:  p.CategoryID,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price,
			Stock:       p.Stock,
			Rating:      p.Rating,
			Images:      p.Images,
			CreatedAt:   p.CreatedAt,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if it.Score < -1 || it.Score > 1 {
			return nil, fmt.Errorf("item %d: score %v outside [-1, 1]", i, it.Score)
		}
		out[i] = result.Scored{Candidate: c, Score: it.Score}
	}
	return out, nil
}

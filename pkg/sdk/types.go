package prodsearch

import (
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// SortField is the catalog ordering applied before ranking.
type SortField string

// Sort field constants.
const (
	SortByPrice     SortField = SortField(filter.SortByPrice)
	SortByRating    SortField = SortField(filter.SortByRating)
	SortByCreatedAt SortField = SortField(filter.SortByCreatedAt)
)

// SortOrder is the sort direction.
type SortOrder string

// Sort order constants.
const (
	SortAsc  SortOrder = SortOrder(filter.SortAsc)
	SortDesc SortOrder = SortOrder(filter.SortDesc)
)

// Product is an active catalog product.
type Product struct {
	ID          int64
	ShopID      int64
	CategoryID  int64
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	Rating      float64
	Images      []string
	CreatedAt   time.Time
}

// Hit is a ranked product. Score is the cosine similarity in [-1, 1];
// browse results without query text carry 0.
type Hit struct {
	Product Product
	Score   float64
}

// Order is a past order used to build a recommendation profile.
type Order struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	Items     []OrderItem
}

// OrderItem is a purchased product line.
type OrderItem struct {
	ProductID int64
	Name      string
	Category  string
}

// Filter is the structured catalog filter passed to a custom Catalog.
// Nil pointers and zero values mean "no constraint"; SortBy "" means newest first.
type Filter struct {
	CategoryID   *int64
	ShopID       *int64
	MinPrice     *float64
	MaxPrice     *float64
	InStock      bool
	MinRating    *float64
	NameContains string // lower-cased
	SortBy       SortField
	SortOrder    SortOrder
}

func filterFromSet(s filter.Set) Filter {
	f := Filter{
		InStock:      s.InStock(),
		NameContains: s.NameContains(),
		SortBy:       SortField(s.SortBy()),
		SortOrder:    SortOrder(s.SortOrder()),
	}
	if v, ok := s.CategoryID(); ok {
		f.CategoryID = &v
	}
	if v, ok := s.ShopID(); ok {
		f.ShopID = &v
	}
	if v, ok := s.MinPrice(); ok {
		f.MinPrice = &v
	}
	if v, ok := s.MaxPrice(); ok {
		f.MaxPrice = &v
	}
	if v, ok := s.MinRating(); ok {
		f.MinRating = &v
	}
	return f
}

func toCandidate(p Product) product.Candidate {
	var created int64
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.UnixMilli()
	}
	return product.Candidate{
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
		CreatedAt:   created,
	}
}

func fromCandidate(c product.Candidate) Product {
	p := Product{
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
	}
	if c.CreatedAt != 0 {
		p.CreatedAt = time.UnixMilli(c.CreatedAt).UTC()
	}
	return p
}

func toHits(items []result.Scored) []Hit {
	hits := make([]Hit, len(items))
	for i, it := range items {
		hits[i] = Hit{Product: fromCandidate(it.Candidate), Score: it.Score}
	}
	return hits
}

func toPastOrders(orders []Order) []order.PastOrder {
	out := make([]order.PastOrder, len(orders))
	for i, o := range orders {
		items := make([]order.Item, len(o.Items))
		for j, it := range o.Items {
			items[j] = order.Item{ProductID: it.ProductID, Name: it.Name, Category: it.Category}
		}
		out[i] = order.PastOrder{ID: o.ID, UserID: o.UserID, CreatedAt: o.CreatedAt, Items: items}
	}
	return out
}

package product

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// MaxRating is the upper bound of the review rating scale.
const MaxRating = 5.0

// Candidate is a read-only product snapshot eligible for ranking in one pass.
type Candidate struct {
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
	CreatedAt   int64 // unix millis
}

// Validate checks the record shape at the storage boundary.
func (c Candidate) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", domain.ErrInvalidCandidate, c.ID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: product %d has empty name", domain.ErrInvalidCandidate, c.ID)
	}
	if math.IsNaN(c.Price) || math.IsInf(c.Price, 0) || c.Price < 0 {
		return fmt.Errorf("%w: product %d has invalid price %v", domain.ErrInvalidCandidate, c.ID, c.Price)
	}
	if c.Stock < 0 {
		return fmt.Errorf("%w: product %d has negative stock", domain.ErrInvalidCandidate, c.ID)
	}
	if math.IsNaN(c.Rating) || c.Rating < 0 || c.Rating > MaxRating {
		return fmt.Errorf("%w: product %d has rating %v outside [0, %v]",
			domain.ErrInvalidCandidate, c.ID, c.Rating, MaxRating)
	}
	return nil
}

// CompositeText is the text embedded for the candidate: name, description and category.
// Empty parts are skipped so a missing description does not leave double spaces.
func (c Candidate) CompositeText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Name, c.Description, c.Category} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// InStock reports whether at least one unit is available.
func (c Candidate) InStock() bool { return c.Stock > 0 }

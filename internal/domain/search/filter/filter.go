package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// MaxNameContainsLength bounds the substring filter on product names (runes).
const MaxNameContainsLength = 256

// SortField is the storage ordering of the candidate set.
type SortField string

// Sort fields accepted by the catalog.
const (
	SortByPrice     SortField = "price"
	SortByRating    SortField = "rating"
	SortByCreatedAt SortField = "created_at"
)

// SortOrder is the sort direction.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Set is an immutable, validated structured filter over the catalog.
// The zero value matches every active product.
type Set struct {
	categoryID   *int64
	shopID       *int64
	minPrice     *float64
	maxPrice     *float64
	inStock      bool
	minRating    *float64
	nameContains string
	sortBy       SortField
	sortOrder    SortOrder
}

// CategoryID returns the category constraint, if any.
func (s Set) CategoryID() (int64, bool) { return deref(s.categoryID) }

// ShopID returns the shop constraint, if any.
func (s Set) ShopID() (int64, bool) { return deref(s.shopID) }

// MinPrice returns the inclusive lower price bound, if any.
func (s Set) MinPrice() (float64, bool) { return deref(s.minPrice) }

// MaxPrice returns the inclusive upper price bound, if any.
func (s Set) MaxPrice() (float64, bool) { return deref(s.maxPrice) }

// InStock reports whether only products with stock > 0 match.
func (s Set) InStock() bool { return s.inStock }

// MinRating returns the minimum rating, if any.
func (s Set) MinRating() (float64, bool) { return deref(s.minRating) }

// NameContains returns the lower-cased name substring ("" when unset).
func (s Set) NameContains() string { return s.nameContains }

// SortBy returns the sort field ("" keeps storage order).
func (s Set) SortBy() SortField { return s.sortBy }

// SortOrder returns the sort direction; always set when SortBy is.
func (s Set) SortOrder() SortOrder { return s.sortOrder }

// IsEmpty reports whether no constraint or ordering is set.
func (s Set) IsEmpty() bool { return s.Canonical() == "" }

// Canonical serializes the set in a fixed field order with fixed number formatting.
// Unset fields are omitted, so equal sets always produce equal strings.
func (s Set) Canonical() string {
	var parts []string
	if v, ok := s.CategoryID(); ok {
		parts = append(parts, "category_id="+strconv.FormatInt(v, 10))
	}
	if v, ok := s.ShopID(); ok {
		parts = append(parts, "shop_id="+strconv.FormatInt(v, 10))
	}
	if v, ok := s.MinPrice(); ok {
		parts = append(parts, "min_price="+formatFloat(v))
	}
	if v, ok := s.MaxPrice(); ok {
		parts = append(parts, "max_price="+formatFloat(v))
	}
	if s.inStock {
		parts = append(parts, "in_stock=true")
	}
	if v, ok := s.MinRating(); ok {
		parts = append(parts, "min_rating="+formatFloat(v))
	}
	if s.nameContains != "" {
		parts = append(parts, "name_contains="+strconv.Quote(s.nameContains))
	}
	if s.sortBy != "" {
		parts = append(parts, "sort="+string(s.sortBy)+":"+string(s.sortOrder))
	}
	return strings.Join(parts, "&")
}

// Builder accumulates filter values and validates them on Build.
type Builder struct {
	set  Set
	errs []error
}

// NewBuilder creates an empty filter builder.
func NewBuilder() *Builder { return &Builder{} }

// CategoryID restricts candidates to one category.
func (b *Builder) CategoryID(id int64) *Builder {
	if id <= 0 {
		b.errs = append(b.errs, fmt.Errorf("category_id must be positive, got %d", id))
	}
	b.set.categoryID = &id
	return b
}

// ShopID restricts candidates to one shop.
func (b *Builder) ShopID(id int64) *Builder {
	if id <= 0 {
		b.errs = append(b.errs, fmt.Errorf("shop_id must be positive, got %d", id))
	}
	b.set.shopID = &id
	return b
}

// MinPrice sets the inclusive lower price bound.
func (b *Builder) MinPrice(v float64) *Builder {
	b.checkPrice("min_price", v)
	b.set.minPrice = &v
	return b
}

// MaxPrice sets the inclusive upper price bound.
func (b *Builder) MaxPrice(v float64) *Builder {
	b.checkPrice("max_price", v)
	b.set.maxPrice = &v
	return b
}

// InStock keeps only products with stock > 0 when v is true.
func (b *Builder) InStock(v bool) *Builder {
	b.set.inStock = v
	return b
}

// MinRating sets the minimum average rating.
func (b *Builder) MinRating(v float64) *Builder {
	if math.IsNaN(v) || v < 0 || v > 5 {
		b.errs = append(b.errs, fmt.Errorf("min_rating must be within [0, 5], got %v", v))
	}
	b.set.minRating = &v
	return b
}

// NameContains sets a case-insensitive substring filter on product names.
func (b *Builder) NameContains(s string) *Builder {
	s = strings.ToLower(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) > MaxNameContainsLength {
		b.errs = append(b.errs, fmt.Errorf("name_contains exceeds %d characters", MaxNameContainsLength))
	}
	b.set.nameContains = s
	return b
}

// Sort sets the storage ordering. An empty order defaults to desc.
func (b *Builder) Sort(field SortField, order SortOrder) *Builder {
	switch field {
	case SortByPrice, SortByRating, SortByCreatedAt:
	default:
		b.errs = append(b.errs, fmt.Errorf("unknown sort_by %q", field))
	}
	switch order {
	case "":
		order = SortDesc
	case SortAsc, SortDesc:
	default:
		b.errs = append(b.errs, fmt.Errorf("unknown sort_order %q", order))
	}
	b.set.sortBy = field
	b.set.sortOrder = order
	return b
}

// Build validates cross-field constraints and returns the Set.
func (b *Builder) Build() (Set, error) {
	errs := b.errs
	if lo, ok := b.set.MinPrice(); ok {
		if hi, ok := b.set.MaxPrice(); ok && lo > hi {
			errs = append(errs, fmt.Errorf("min_price %v exceeds max_price %v", lo, hi))
		}
	}
	if len(errs) > 0 {
		return Set{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, errors.Join(errs...))
	}
	return b.set, nil
}

func (b *Builder) checkPrice(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		b.errs = append(b.errs, fmt.Errorf("%s must be a non-negative number, got %v", name, v))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

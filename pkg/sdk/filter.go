package prodsearch

import "github.com/kailas-cloud/prodsearch/internal/domain/search/filter"

// FilterOption narrows the candidate set of a Search call.
// Invalid values surface as ErrInvalidFilter from Search.
type FilterOption interface {
	applyFilter(*filter.Builder)
}

type filterFunc func(*filter.Builder)

func (f filterFunc) applyFilter(b *filter.Builder) { f(b) }

// InCategory keeps products of one category.
func InCategory(id int64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.CategoryID(id) })
}

// FromShop keeps products of one shop.
func FromShop(id int64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.ShopID(id) })
}

// MinPrice sets the inclusive lower price bound.
func MinPrice(v float64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.MinPrice(v) })
}

// MaxPrice sets the inclusive upper price bound.
func MaxPrice(v float64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.MaxPrice(v) })
}

// PriceBetween sets both price bounds.
func PriceBetween(lo, hi float64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.MinPrice(lo).MaxPrice(hi) })
}

// InStockOnly drops products with no stock.
func InStockOnly() FilterOption {
	return filterFunc(func(b *filter.Builder) { b.InStock(true) })
}

// MinRating keeps products rated at least r (0..5).
func MinRating(r float64) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.MinRating(r) })
}

// NameContains keeps products whose name contains s, case-insensitively.
func NameContains(s string) FilterOption {
	return filterFunc(func(b *filter.Builder) { b.NameContains(s) })
}

// SortBy orders the candidate set before it is capped and ranked.
func SortBy(field SortField, order SortOrder) FilterOption {
	return filterFunc(func(b *filter.Builder) {
		b.Sort(filter.SortField(field), filter.SortOrder(order))
	})
}

func buildFilter(opts []FilterOption) (filter.Set, error) {
	b := filter.NewBuilder()
	for _, o := range opts {
		o.applyFilter(b)
	}
	return b.Build() //nolint:wrapcheck // carries ErrInvalidFilter
}

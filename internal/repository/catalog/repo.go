package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

const selectProducts = `
	SELECT p.id, p.shop_id, p.category_id, p.name,
	       COALESCE(p.description, '') AS description,
	       COALESCE(c.name, '') AS category,
	       p.price,
	       COALESCE(p.stock, 0) AS stock,
	       COALESCE(p.rating, 0) AS rating,
	       p.images, p.created_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.is_active = TRUE`

// defaultOrder is the storage order when no sort is requested: newest first.
const defaultOrder = " ORDER BY p.created_at DESC, p.id DESC"

var sortColumns = map[filter.SortField]string{
	filter.SortByPrice:     "p.price",
	filter.SortByRating:    "p.rating",
	filter.SortByCreatedAt: "p.created_at",
}

type productRow struct {
	ID          int64           `db:"id"`
	ShopID      int64           `db:"shop_id"`
	CategoryID  sql.NullInt64   `db:"category_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Price       sql.NullFloat64 `db:"price"`
	Stock       int             `db:"stock"`
	Rating      float64         `db:"rating"`
	Images      pq.StringArray  `db:"images"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Repository reads candidate products from Postgres.
type Repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New creates a catalog repository.
func New(db *sqlx.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// FindWithFilters returns at most limit active products matching filters, in storage order.
func (r *Repository) FindWithFilters(ctx context.Context, filters filter.Set, limit int) ([]product.Candidate, error) {
	query, args := buildQuery(filters, limit)
	return r.find(ctx, query, args)
}

// FindAll returns at most limit active products in default storage order.
func (r *Repository) FindAll(ctx context.Context, limit int) ([]product.Candidate, error) {
	query, args := buildQuery(filter.Set{}, limit)
	return r.find(ctx, query, args)
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

func (r *Repository) find(ctx context.Context, query string, args []any) ([]product.Candidate, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: select products: %w", domain.ErrCatalogUnavailable, err)
	}

	out := make([]product.Candidate, 0, len(rows))
	for _, row := range rows {
		if !row.Price.Valid {
			r.logger.Warn("Skipping catalog record without price", zap.Int64("product_id", row.ID))
			continue
		}
		c := row.toDomain()
		if err := c.Validate(); err != nil {
			r.logger.Warn("Skipping invalid catalog record",
				zap.Int64("product_id", row.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (row productRow) toDomain() product.Candidate {
	var images []string
	if len(row.Images) > 0 {
		images = []string(row.Images)
	}
	var createdAt int64
	if !row.CreatedAt.IsZero() {
		createdAt = row.CreatedAt.UnixMilli()
	}
	return product.Candidate{
		ID:          row.ID,
		ShopID:      row.ShopID,
		CategoryID:  row.CategoryID.Int64,
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		Price:       row.Price.Float64,
		Stock:       row.Stock,
		Rating:      row.Rating,
		Images:      images,
		CreatedAt:   createdAt,
	}
}

// buildQuery renders the filtered SELECT with positional arguments.
func buildQuery(f filter.Set, limit int) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(selectProducts)
	if v, ok := f.CategoryID(); ok {
		sb.WriteString(" AND p.category_id = " + arg(v))
	}
	if v, ok := f.ShopID(); ok {
		sb.WriteString(" AND p.shop_id = " + arg(v))
	}
	if v, ok := f.MinPrice(); ok {
		sb.WriteString(" AND p.price >= " + arg(v))
	}
	if v, ok := f.MaxPrice(); ok {
		sb.WriteString(" AND p.price <= " + arg(v))
	}
	if f.InStock() {
		sb.WriteString(" AND p.stock > 0")
	}
	if v, ok := f.MinRating(); ok {
		sb.WriteString(" AND p.rating >= " + arg(v))
	}
	if s := f.NameContains(); s != "" {
		sb.WriteString(" AND p.name ILIKE " + arg("%"+escapeLike(s)+"%"))
	}

	if col, ok := sortColumns[f.SortBy()]; ok {
		dir := "DESC"
		if f.SortOrder() == filter.SortAsc {
			dir = "ASC"
		}
		sb.WriteString(" ORDER BY " + col + " " + dir + ", p.id " + dir)
	} else {
		sb.WriteString(defaultOrder)
	}

	if limit > 0 {
		sb.WriteString(" LIMIT " + arg(limit))
	}
	return sb.String(), args
}

// escapeLike escapes LIKE wildcards using the default backslash escape.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

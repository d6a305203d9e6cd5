package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/order"
)

// DefaultMaxOrders bounds how much history feeds a preference profile.
const DefaultMaxOrders = 50

const selectOrderItems = `
	SELECT o.id AS order_id, o.user_id, o.created_at,
	       oi.product_id, p.name, COALESCE(c.name, '') AS category
	FROM (
		SELECT id, user_id, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	) o
	JOIN order_items oi ON oi.order_id = o.id
	JOIN products p ON p.id = oi.product_id
	LEFT JOIN categories c ON c.id = p.category_id
	ORDER BY o.created_at DESC, o.id DESC, oi.product_id ASC`

type itemRow struct {
	OrderID   int64     `db:"order_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ProductID int64     `db:"product_id"`
	Name      string    `db:"name"`
	Category  string    `db:"category"`
}

// Repository reads a user's order history from Postgres.
type Repository struct {
	db        *sqlx.DB
	maxOrders int
}

// New creates an order repository. maxOrders <= 0 uses DefaultMaxOrders.
func New(db *sqlx.DB, maxOrders int) *Repository {
	if maxOrders <= 0 {
		maxOrders = DefaultMaxOrders
	}
	return &Repository{db: db, maxOrders: maxOrders}
}

// FindByUser returns the user's most recent orders with their items, newest first.
// Orders without any joinable item are omitted.
func (r *Repository) FindByUser(ctx context.Context, userID int64) ([]order.PastOrder, error) {
	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, selectOrderItems, userID, r.maxOrders); err != nil {
		return nil, fmt.Errorf("%w: select orders of user %d: %w", domain.ErrCatalogUnavailable, userID, err)
	}

	out := make([]order.PastOrder, 0)
	for _, row := range rows {
		n := len(out)
		if n == 0 || out[n-1].ID != row.OrderID {
			out = append(out, order.PastOrder{
				ID:        row.OrderID,
				UserID:    row.UserID,
				CreatedAt: row.CreatedAt,
			})
			n++
		}
		out[n-1].Items = append(out[n-1].Items, order.Item{
			ProductID: row.ProductID,
			Name:      row.Name,
			Category:  row.Category,
		})
	}
	return out, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

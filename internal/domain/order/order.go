package order

import (
	"sort"
	"strings"
	"time"
)

// Item is a purchased product line as seen by the recommendation profile.
type Item struct {
	ProductID int64
	Name      string
	Category  string
}

// PastOrder is a user's historical order.
type PastOrder struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	Items     []Item
}

// Profile builds the textual preference profile used as the recommendation query:
// "name category" of every purchased item, most recent order first, space-joined.
// No orders (or no non-blank items) yields "".
func Profile(orders []PastOrder) string {
	sorted := make([]PastOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var parts []string
	for _, o := range sorted {
		for _, it := range o.Items {
			if s := strings.TrimSpace(strings.TrimSpace(it.Name) + " " + strings.TrimSpace(it.Category)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

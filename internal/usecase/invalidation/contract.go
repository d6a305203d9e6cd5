package invalidation

import "context"

// Cache removes cached result lists.
type Cache interface {
	Delete(ctx context.Context, key string) (bool, error)
	DeletePattern(ctx context.Context, prefix string) (int, error)
}

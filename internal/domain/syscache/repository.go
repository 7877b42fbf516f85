package syscache

import (
	"context"
)

// Repository reads return nil on miss, not an error
type Repository interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Upsert(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

package priceoverride

import (
	"context"
	"time"
)

// Repository reads return nil on miss, not an error. UpsertBatch writes all
// entries in a single transaction keyed by (property_id, date).
type Repository interface {
	Get(ctx context.Context, propertyID string, date time.Time) (*PriceOverride, error)
	ListByPropertyRange(ctx context.Context, propertyID string, from, to time.Time) ([]*PriceOverride, error)
	Upsert(ctx context.Context, override *PriceOverride) error
	UpsertBatch(ctx context.Context, propertyID string, overrides []*PriceOverride) error
	Delete(ctx context.Context, propertyID string, date time.Time) error
}

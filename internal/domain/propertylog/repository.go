package propertylog

import (
	"context"
)

// Repository is append-only; there is no update or delete
type Repository interface {
	Create(ctx context.Context, log *PropertyLog) error
	ListByProperty(ctx context.Context, propertyID string) ([]*PropertyLog, error)
}

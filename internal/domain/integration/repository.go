package integration

import (
	"context"

	"github.com/stayprice/stayprice/internal/types"
)

// Repository reads return nil on miss, not an error
type Repository interface {
	Create(ctx context.Context, integration *Integration) error
	GetByUserAndType(ctx context.Context, userID string, pmsType types.PMSType) (*Integration, error)
	ListByUser(ctx context.Context, userID string) ([]*Integration, error)
	UpdateLastSync(ctx context.Context, id string) error
	Delete(ctx context.Context, userID string, pmsType types.PMSType) error
}

package property

import (
	"context"
)

// Repository reads return nil on miss, not an error
type Repository interface {
	Create(ctx context.Context, property *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	GetByPMSID(ctx context.Context, teamID, pmsID string) (*Property, error)
	Update(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id string) error
	// ListByTeam returns properties whose team_id matches, including rows
	// predating teams where only owner_id is set
	ListByTeam(ctx context.Context, teamID string) ([]*Property, error)
	CountByTeam(ctx context.Context, teamID string) (int, error)
}

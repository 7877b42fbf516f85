package tenant

import (
	"context"
)

// Repository reads return nil on miss, not an error
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	List(ctx context.Context) ([]*Tenant, error)
	ListAutoPricingEnabled(ctx context.Context) ([]*Tenant, error)
	ListByTeam(ctx context.Context, teamID string) ([]*Tenant, error)
}

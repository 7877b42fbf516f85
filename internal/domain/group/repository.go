package group

import (
	"context"
)

// Repository reads return nil on miss, not an error. Delete removes the
// group and its join rows atomically.
type Repository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Group, error)
	AddProperty(ctx context.Context, groupID, propertyID string) error
	RemoveProperty(ctx context.Context, groupID, propertyID string) error
	// GetByProperty returns the group a property belongs to, nil when the
	// property is not grouped
	GetByProperty(ctx context.Context, propertyID string) (*Group, error)
}

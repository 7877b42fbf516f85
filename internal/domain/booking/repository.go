package booking

import (
	"context"
	"time"
)

// Repository reads return nil on miss, not an error
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByPMSBookingID(ctx context.Context, propertyID, pmsBookingID string) (*Booking, error)
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id string) error
	ListByProperty(ctx context.Context, propertyID string) ([]*Booking, error)
	// ListForTeamOverlapping returns bookings on any of the team's
	// properties intersecting [from, to)
	ListForTeamOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]*Booking, error)
}

package usedlisting

import (
	"context"
)

// Repository guards global listing-id uniqueness. Register swallows
// duplicate inserts instead of surfacing them.
type Repository interface {
	Register(ctx context.Context, listing *UsedListing) error
	Exists(ctx context.Context, listingID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*UsedListing, error)
}

package postgres

import (
	"context"
	"time"

	"github.com/stayprice/stayprice/internal/domain/usedlisting"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type usedListingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUsedListingRepository(db *postgres.DB, logger *logger.Logger) usedlisting.Repository {
	return &usedListingRepository{db: db, logger: logger}
}

// Register swallows duplicate listing ids; the table is a global
// uniqueness guard, not an audit log
func (r *usedListingRepository) Register(ctx context.Context, l *usedlisting.UsedListing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO used_listing_ids (listing_id, user_id, source, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (listing_id) DO NOTHING`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, l.ListingID, l.UserID, l.Source, l.CreatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to register listing id").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *usedListingRepository) Exists(ctx context.Context, listingID string) (bool, error) {
	query := `SELECT COUNT(*) FROM used_listing_ids WHERE listing_id = $1`

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, listingID); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check listing id").
			Mark(ierr.ErrDatabase)
	}
	return count > 0, nil
}

func (r *usedListingRepository) ListByUser(ctx context.Context, userID string) ([]*usedlisting.UsedListing, error) {
	query := `SELECT * FROM used_listing_ids WHERE user_id = $1 ORDER BY created_at`

	var listings []*usedlisting.UsedListing
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &listings, query, userID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list used listing ids").
			Mark(ierr.ErrDatabase)
	}
	return listings, nil
}

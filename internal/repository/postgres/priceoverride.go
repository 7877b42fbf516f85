package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
	"github.com/stayprice/stayprice/internal/types"
)

type priceOverrideRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPriceOverrideRepository(db *postgres.DB, logger *logger.Logger) priceoverride.Repository {
	return &priceOverrideRepository{db: db, logger: logger}
}

func (r *priceOverrideRepository) Get(ctx context.Context, propertyID string, date time.Time) (*priceoverride.PriceOverride, error) {
	query := `SELECT * FROM price_overrides WHERE property_id = $1 AND date = $2`

	var o priceoverride.PriceOverride
	err := r.db.GetQuerier(ctx).GetContext(ctx, &o, query, propertyID, types.TruncateToDay(date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load price override").
			Mark(ierr.ErrDatabase)
	}
	return &o, nil
}

func (r *priceOverrideRepository) ListByPropertyRange(ctx context.Context, propertyID string, from, to time.Time) ([]*priceoverride.PriceOverride, error) {
	query := `
	SELECT * FROM price_overrides
	WHERE property_id = $1 AND date >= $2 AND date <= $3
	ORDER BY date`

	var overrides []*priceoverride.PriceOverride
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &overrides, query,
		propertyID, types.TruncateToDay(from), types.TruncateToDay(to))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list price overrides").
			Mark(ierr.ErrDatabase)
	}
	return overrides, nil
}

func (r *priceOverrideRepository) Upsert(ctx context.Context, o *priceoverride.PriceOverride) error {
	return r.upsert(ctx, o)
}

// UpsertBatch writes the orchestrator's calendar in one transaction so a
// partial write never becomes visible
func (r *priceOverrideRepository) UpsertBatch(ctx context.Context, propertyID string, overrides []*priceoverride.PriceOverride) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		for _, o := range overrides {
			o.PropertyID = propertyID
			if err := r.upsert(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *priceOverrideRepository) upsert(ctx context.Context, o *priceoverride.PriceOverride) error {
	if o.ID == "" {
		o.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE_OVERRIDE)
	}
	o.UpdatedAt = time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = o.UpdatedAt
	}

	query := `
	INSERT INTO price_overrides (
		id, property_id, date, price, is_locked, reason,
		created_at, updated_at, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (property_id, date) DO UPDATE SET
		price = EXCLUDED.price,
		is_locked = EXCLUDED.is_locked,
		reason = EXCLUDED.reason,
		updated_at = EXCLUDED.updated_at,
		updated_by = EXCLUDED.updated_by`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		o.ID, o.PropertyID, types.TruncateToDay(o.Date), o.Price, o.IsLocked,
		o.Reason, o.CreatedAt, o.UpdatedAt, o.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write price override").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceOverrideRepository) Delete(ctx context.Context, propertyID string, date time.Time) error {
	query := `DELETE FROM price_overrides WHERE property_id = $1 AND date = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, propertyID, types.TruncateToDay(date))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete price override").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

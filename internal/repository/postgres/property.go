package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/property"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type propertyRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPropertyRepository(db *postgres.DB, logger *logger.Logger) property.Repository {
	return &propertyRepository{db: db, logger: logger}
}

func (r *propertyRepository) Create(ctx context.Context, p *property.Property) error {
	query := `
	INSERT INTO properties (
		id, team_id, owner_id, address, city, latitude, longitude, country,
		property_type, capacity, surface, amenities, strategy,
		floor_price, base_price, ceiling_price, min_stay, max_stay,
		weekly_discount_percent, monthly_discount_percent,
		weekend_markup_percent, status, pms_id, pms_type,
		created_at, updated_at, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
	)`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		p.ID, p.TeamID, p.OwnerID, p.Address, p.City, p.Latitude, p.Longitude,
		p.Country, p.PropertyType, p.Capacity, p.Surface, p.Amenities,
		p.Strategy, p.FloorPrice, p.BasePrice, p.CeilingPrice, p.MinStay,
		p.MaxStay, p.WeeklyDiscountPercent, p.MonthlyDiscountPercent,
		p.WeekendMarkupPercent, p.Status, p.PMSID, p.PMSType,
		p.CreatedAt, p.UpdatedAt, p.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create property").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*property.Property, error) {
	query := `SELECT * FROM properties WHERE id = $1`

	var p property.Property
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load property").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *propertyRepository) GetByPMSID(ctx context.Context, teamID, pmsID string) (*property.Property, error) {
	query := `
	SELECT * FROM properties
	WHERE pms_id = $2 AND (team_id = $1 OR owner_id = $1)`

	var p property.Property
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, teamID, pmsID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load property").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *property.Property) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE properties SET
		team_id = $2, owner_id = $3, address = $4, city = $5, latitude = $6,
		longitude = $7, country = $8, property_type = $9, capacity = $10,
		surface = $11, amenities = $12, strategy = $13, floor_price = $14,
		base_price = $15, ceiling_price = $16, min_stay = $17, max_stay = $18,
		weekly_discount_percent = $19, monthly_discount_percent = $20,
		weekend_markup_percent = $21, status = $22, pms_id = $23,
		pms_type = $24, updated_at = $25, updated_by = $26
	WHERE id = $1`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		p.ID, p.TeamID, p.OwnerID, p.Address, p.City, p.Latitude, p.Longitude,
		p.Country, p.PropertyType, p.Capacity, p.Surface, p.Amenities,
		p.Strategy, p.FloorPrice, p.BasePrice, p.CeilingPrice, p.MinStay,
		p.MaxStay, p.WeeklyDiscountPercent, p.MonthlyDiscountPercent,
		p.WeekendMarkupPercent, p.Status, p.PMSID, p.PMSType,
		p.UpdatedAt, p.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update property").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *propertyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete property").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *propertyRepository) ListByTeam(ctx context.Context, teamID string) ([]*property.Property, error) {
	// owner_id fallback covers rows created before team assignment
	query := `
	SELECT * FROM properties
	WHERE team_id = $1 OR owner_id = $1
	ORDER BY created_at`

	var properties []*property.Property
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &properties, query, teamID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list properties").
			Mark(ierr.ErrDatabase)
	}
	return properties, nil
}

func (r *propertyRepository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	query := `SELECT COUNT(*) FROM properties WHERE team_id = $1 OR owner_id = $1`

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, teamID); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count properties").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

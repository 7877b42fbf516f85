package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/booking"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type bookingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBookingRepository(db *postgres.DB, logger *logger.Logger) booking.Repository {
	return &bookingRepository{db: db, logger: logger}
}

func (r *bookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `
	INSERT INTO bookings (
		id, property_id, start_date, end_date, price_per_night, revenue,
		channel, guest_name, status, pms_booking_id, pricing_method,
		created_at, updated_at, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		b.ID, b.PropertyID, b.StartDate, b.EndDate, b.PricePerNight,
		b.Revenue, b.Channel, b.GuestName, b.Status, b.PMSBookingID,
		b.PricingMethod, b.CreatedAt, b.UpdatedAt, b.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create booking").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	query := `SELECT * FROM bookings WHERE id = $1`

	var b booking.Booking
	err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load booking").
			Mark(ierr.ErrDatabase)
	}
	return &b, nil
}

func (r *bookingRepository) GetByPMSBookingID(ctx context.Context, propertyID, pmsBookingID string) (*booking.Booking, error) {
	query := `SELECT * FROM bookings WHERE property_id = $1 AND pms_booking_id = $2`

	var b booking.Booking
	err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, propertyID, pmsBookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load booking").
			Mark(ierr.ErrDatabase)
	}
	return &b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	b.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE bookings SET
		start_date = $2, end_date = $3, price_per_night = $4, revenue = $5,
		channel = $6, guest_name = $7, status = $8, pms_booking_id = $9,
		pricing_method = $10, updated_at = $11, updated_by = $12
	WHERE id = $1`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		b.ID, b.StartDate, b.EndDate, b.PricePerNight, b.Revenue, b.Channel,
		b.GuestName, b.Status, b.PMSBookingID, b.PricingMethod,
		b.UpdatedAt, b.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update booking").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete booking").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *bookingRepository) ListByProperty(ctx context.Context, propertyID string) ([]*booking.Booking, error) {
	query := `SELECT * FROM bookings WHERE property_id = $1 ORDER BY start_date`

	var bookings []*booking.Booking
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &bookings, query, propertyID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list bookings").
			Mark(ierr.ErrDatabase)
	}
	return bookings, nil
}

func (r *bookingRepository) ListForTeamOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]*booking.Booking, error) {
	query := `
	SELECT b.* FROM bookings b
	JOIN properties p ON p.id = b.property_id
	WHERE (p.team_id = $1 OR p.owner_id = $1)
	  AND b.start_date < $3 AND b.end_date > $2
	ORDER BY b.start_date`

	var bookings []*booking.Booking
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &bookings, query, teamID, from, to); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list team bookings").
			Mark(ierr.ErrDatabase)
	}
	return bookings, nil
}

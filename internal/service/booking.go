package service

import (
	"context"
	"time"

	"github.com/stayprice/stayprice/internal/domain/booking"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// BookingService owns local booking mutations. Bookings that mirror a
// remote reservation are replayed to the PMS best-effort: the local state
// stays authoritative and a remote failure only annotates the log.
type BookingService struct {
	ServiceParams
	tenants *TenantService
	sync    *PMSSyncService
}

func NewBookingService(params ServiceParams, tenants *TenantService, sync *PMSSyncService) *BookingService {
	return &BookingService{ServiceParams: params, tenants: tenants, sync: sync}
}

// Create persists a booking and, on linked properties, mirrors it remotely
func (s *BookingService) Create(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	prop, err := s.PropertyRepo.GetByID(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, ierr.NewError("property not found").
			WithHintf("No property exists with id %s", b.PropertyID).
			Mark(ierr.ErrNotFound)
	}
	if prop.TeamID != t.EffectiveTeamID() && prop.OwnerID != t.ID {
		return nil, ierr.NewError("property belongs to another team").
			WithHint("You can only book properties of your own team").
			Mark(ierr.ErrPermissionDenied)
	}

	b.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BOOKING)
	if b.Status == "" {
		b.Status = types.BookingStatusConfirmed
	}
	if b.PricingMethod == "" {
		b.PricingMethod = types.PricingMethodManual
	}
	b.StartDate = types.TruncateToDay(b.StartDate)
	b.EndDate = types.TruncateToDay(b.EndDate)
	b.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if b.PricePerNight != nil && b.Revenue == nil {
		revenue := *b.PricePerNight * int64(b.Nights())
		b.Revenue = &revenue
	}

	// Remote first, but the local write proceeds even when the push fails
	if remoteID := s.sync.PushReservationCreate(ctx, t, prop, b); remoteID != "" {
		b.PMSBookingID = &remoteID
	}

	if err := s.BookingRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update modifies a booking, replaying mirrored reservations remotely
func (s *BookingService) Update(ctx context.Context, bookingID string, update func(*booking.Booking)) (*booking.Booking, error) {
	t, b, prop, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	update(b)
	b.StartDate = types.TruncateToDay(b.StartDate)
	b.EndDate = types.TruncateToDay(b.EndDate)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.sync.PushReservationUpdate(ctx, t, prop, b)

	if err := s.BookingRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a booking, cancelling mirrored reservations remotely
func (s *BookingService) Delete(ctx context.Context, bookingID string) error {
	t, b, prop, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}

	s.sync.PushReservationDelete(ctx, t, prop, b)
	return s.BookingRepo.Delete(ctx, b.ID)
}

// ListByProperty returns a property's bookings after the team check
func (s *BookingService) ListByProperty(ctx context.Context, propertyID string) ([]*booking.Booking, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	prop, err := s.PropertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil || (prop.TeamID != t.EffectiveTeamID() && prop.OwnerID != t.ID) {
		return nil, ierr.NewError("property not found").
			Mark(ierr.ErrNotFound)
	}
	return s.BookingRepo.ListByProperty(ctx, propertyID)
}

// OccupancyStats is the team-wide booking summary over a window
type OccupancyStats struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Bookings      int       `json:"bookings"`
	NightsBooked  int       `json:"nights_booked"`
	TotalRevenue  int64     `json:"total_revenue"`
	OccupancyRate float64   `json:"occupancy_rate"`
}

// Stats aggregates the team's confirmed bookings overlapping [from, to)
func (s *BookingService) Stats(ctx context.Context, from, to time.Time) (*OccupancyStats, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	from = types.TruncateToDay(from)
	to = types.TruncateToDay(to)
	if !from.Before(to) {
		return nil, ierr.NewError("invalid stats window").
			WithHint("The from date must come before the to date").
			Mark(ierr.ErrValidation)
	}

	bookings, err := s.BookingRepo.ListForTeamOverlapping(ctx, t.EffectiveTeamID(), from, to)
	if err != nil {
		return nil, err
	}
	count, err := s.PropertyRepo.CountByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		return nil, err
	}

	stats := &OccupancyStats{From: from, To: to}
	for _, b := range bookings {
		if b.Status == types.BookingStatusCanceled {
			continue
		}
		stats.Bookings++
		stats.NightsBooked += overlapNights(b, from, to)
		if b.Revenue != nil {
			stats.TotalRevenue += *b.Revenue
		}
	}

	windowNights := int(to.Sub(from).Hours()/24) * count
	if windowNights > 0 {
		stats.OccupancyRate = float64(stats.NightsBooked) / float64(windowNights)
	}
	return stats, nil
}

func overlapNights(b *booking.Booking, from, to time.Time) int {
	start := b.StartDate
	if start.Before(from) {
		start = from
	}
	end := b.EndDate
	if end.After(to) {
		end = to
	}
	if !start.Before(end) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// load fetches the booking with its property and runs the team check
func (s *BookingService) load(ctx context.Context, bookingID string) (*tenant.Tenant, *booking.Booking, *property.Property, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, nil, nil, err
	}

	b, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	if b == nil {
		return nil, nil, nil, ierr.NewError("booking not found").
			WithHintf("No booking exists with id %s", bookingID).
			Mark(ierr.ErrNotFound)
	}

	prop, err := s.PropertyRepo.GetByID(ctx, b.PropertyID)
	if err != nil {
		return nil, nil, nil, err
	}
	if prop == nil || (prop.TeamID != t.EffectiveTeamID() && prop.OwnerID != t.ID) {
		return nil, nil, nil, ierr.NewError("booking belongs to another team").
			WithHint("You can only manage bookings of your own team").
			Mark(ierr.ErrPermissionDenied)
	}
	return t, b, prop, nil
}

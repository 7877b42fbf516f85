package dto

import (
	"time"

	"github.com/stayprice/stayprice/internal/domain/booking"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

// CreateBookingRequest records a stay. Dates are YYYY-MM-DD and the end
// date is exclusive (check-out day).
type CreateBookingRequest struct {
	PropertyID    string              `json:"property_id" validate:"required"`
	StartDate     string              `json:"start_date" validate:"required"`
	EndDate       string              `json:"end_date" validate:"required"`
	PricePerNight *int64              `json:"price_per_night,omitempty" validate:"omitempty,gt=0"`
	Revenue       *int64              `json:"revenue,omitempty" validate:"omitempty,min=0"`
	Channel       string              `json:"channel,omitempty"`
	GuestName     *string             `json:"guest_name,omitempty"`
	Status        types.BookingStatus `json:"status,omitempty"`
}

func (r *CreateBookingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToBooking converts the request to the domain model
func (r *CreateBookingRequest) ToBooking() (*booking.Booking, error) {
	start, err := parseDate(r.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(r.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	return &booking.Booking{
		PropertyID:    r.PropertyID,
		StartDate:     start,
		EndDate:       end,
		PricePerNight: r.PricePerNight,
		Revenue:       r.Revenue,
		Channel:       r.Channel,
		GuestName:     r.GuestName,
		Status:        r.Status,
	}, nil
}

// UpdateBookingRequest patches a booking; absent fields keep their value
type UpdateBookingRequest struct {
	StartDate     *string              `json:"start_date,omitempty"`
	EndDate       *string              `json:"end_date,omitempty"`
	PricePerNight *int64               `json:"price_per_night,omitempty" validate:"omitempty,gt=0"`
	Revenue       *int64               `json:"revenue,omitempty" validate:"omitempty,min=0"`
	GuestName     *string              `json:"guest_name,omitempty"`
	Status        *types.BookingStatus `json:"status,omitempty"`
}

func (r *UpdateBookingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// Apply copies the present fields onto the booking
func (r *UpdateBookingRequest) Apply(b *booking.Booking) error {
	if r.StartDate != nil {
		start, err := parseDate(*r.StartDate, "start_date")
		if err != nil {
			return err
		}
		b.StartDate = start
	}
	if r.EndDate != nil {
		end, err := parseDate(*r.EndDate, "end_date")
		if err != nil {
			return err
		}
		b.EndDate = end
	}
	if r.PricePerNight != nil {
		b.PricePerNight = r.PricePerNight
	}
	if r.Revenue != nil {
		b.Revenue = r.Revenue
	}
	if r.GuestName != nil {
		b.GuestName = r.GuestName
	}
	if r.Status != nil {
		b.Status = *r.Status
	}
	return nil
}

func parseDate(value, field string) (time.Time, error) {
	d, err := types.ParseDate(value)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("%s must be a YYYY-MM-DD date", field).
			Mark(ierr.ErrValidation)
	}
	return d, nil
}

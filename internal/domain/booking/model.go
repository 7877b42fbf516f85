package booking

import (
	"time"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// Booking is a stay on a property. Rows carrying a PMSBookingID mirror a
// remote reservation; mutations to them must be replayed through the PMS
// sync gateway.
type Booking struct {
	ID            string              `db:"id" json:"id"`
	PropertyID    string              `db:"property_id" json:"property_id"`
	StartDate     time.Time           `db:"start_date" json:"start_date"`
	EndDate       time.Time           `db:"end_date" json:"end_date"`
	PricePerNight *int64              `db:"price_per_night" json:"price_per_night,omitempty"`
	Revenue       *int64              `db:"revenue" json:"revenue,omitempty"`
	Channel       string              `db:"channel" json:"channel"`
	GuestName     *string             `db:"guest_name" json:"guest_name,omitempty"`
	Status        types.BookingStatus `db:"status" json:"status"`
	PMSBookingID  *string             `db:"pms_booking_id" json:"pms_booking_id,omitempty"`
	PricingMethod types.PricingMethod `db:"pricing_method" json:"pricing_method"`

	types.BaseModel
}

// IsPMSMirror reports whether the booking mirrors a remote reservation
func (b *Booking) IsPMSMirror() bool {
	return b.PMSBookingID != nil && *b.PMSBookingID != ""
}

// Nights returns the number of booked nights
func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

// Validate enforces the date-ordering invariant
func (b *Booking) Validate() error {
	if !b.StartDate.Before(b.EndDate) {
		return ierr.NewError("start date must be before end date").
			WithHint("The check-in date must come before the check-out date").
			Mark(ierr.ErrValidation)
	}
	if b.Status != "" && !b.Status.Validate() {
		return ierr.NewError("unknown booking status").
			WithHint("Status must be confirmé, en_attente or annulé").
			Mark(ierr.ErrValidation)
	}
	return nil
}

package types

// BookingStatus is kept in the operators' locale, matching what the
// connected PMS channels report
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmé"
	BookingStatusPending   BookingStatus = "en_attente"
	BookingStatusCanceled  BookingStatus = "annulé"
)

func (s BookingStatus) Validate() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCanceled:
		return true
	}
	return false
}

// PricingMethod records how the nightly price of a booking was decided
type PricingMethod string

const (
	PricingMethodAI     PricingMethod = "ai"
	PricingMethodManual PricingMethod = "manuelle"
	PricingMethodPMS    PricingMethod = "pms"
)

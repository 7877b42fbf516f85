package pms

// NormalizedProperty is the canonical representation of a remote listing.
// Adapters stringify native ids and normalize dates to YYYY-MM-DD before
// returning anything to the gateway.
type NormalizedProperty struct {
	PMSID    string    `json:"pmsId"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// Location carries whatever address data the backend exposes
type Location struct {
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// NormalizedReservation is the canonical representation of a remote
// reservation. Prices are base currency units (floats), dates YYYY-MM-DD.
type NormalizedReservation struct {
	PMSID      string   `json:"pmsId"`
	PropertyID string   `json:"propertyId"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Status     string   `json:"status"`
	GuestName  *string  `json:"guestName,omitempty"`
	TotalPrice *float64 `json:"totalPrice,omitempty"`
	Channel    string   `json:"channel,omitempty"`
}

// ReservationData is the payload for creating or updating a remote reservation
type ReservationData struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Status     string   `json:"status,omitempty"`
	GuestName  *string  `json:"guestName,omitempty"`
	TotalPrice *float64 `json:"totalPrice,omitempty"`
	Channel    string   `json:"channel,omitempty"`
}

// RateUpdate is a single (date, price) rate push
type RateUpdate struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// RateRun is a coalesced run of dates sharing one price, for backends
// supporting bulk rate updates
type RateRun struct {
	Dates []string `json:"dates"`
	Price float64  `json:"price"`
}

// Settings is a partial settings update. Nil fields are left untouched on
// the remote side. Monetary values are base currency units.
type Settings struct {
	BasePrice              *float64 `json:"base_price,omitempty"`
	FloorPrice             *float64 `json:"floor_price,omitempty"`
	CeilingPrice           *float64 `json:"ceiling_price,omitempty"`
	MinStay                *int     `json:"min_stay,omitempty"`
	MaxStay                *int     `json:"max_stay,omitempty"`
	WeeklyDiscountPercent  *float64 `json:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent *float64 `json:"monthly_discount_percent,omitempty"`
	WeekendMarkupPercent   *float64 `json:"weekend_markup_percent,omitempty"`
}

// CoalesceRates groups consecutive rate updates sharing the same price into
// runs. Input order is preserved; adapters that cannot batch iterate the
// updates directly instead.
func CoalesceRates(updates []RateUpdate) []RateRun {
	runs := make([]RateRun, 0, len(updates))
	for _, u := range updates {
		if n := len(runs); n > 0 && runs[n-1].Price == u.Price {
			runs[n-1].Dates = append(runs[n-1].Dates, u.Date)
			continue
		}
		runs = append(runs, RateRun{Dates: []string{u.Date}, Price: u.Price})
	}
	return runs
}

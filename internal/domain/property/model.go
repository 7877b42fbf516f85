package property

import (
	"github.com/stayprice/stayprice/internal/types"
	ierr "github.com/stayprice/stayprice/internal/errors"
)

// Property is a bookable rental unit
type Property struct {
	ID           string   `db:"id" json:"id"`
	TeamID       string   `db:"team_id" json:"team_id"`
	OwnerID      string   `db:"owner_id" json:"owner_id"`
	Address      string   `db:"address" json:"address"`
	City         string   `db:"city" json:"city"`
	Latitude     *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64 `db:"longitude" json:"longitude,omitempty"`
	Country      string   `db:"country" json:"country"`
	PropertyType string   `db:"property_type" json:"property_type"`
	Capacity     int      `db:"capacity" json:"capacity"`
	Surface      float64  `db:"surface" json:"surface"`

	Amenities types.StringList      `db:"amenities" json:"amenities"`
	Strategy  types.PricingStrategy `db:"strategy" json:"strategy"`

	// Monetary fields are integer minor units (cents)
	FloorPrice   int64  `db:"floor_price" json:"floor_price"`
	BasePrice    int64  `db:"base_price" json:"base_price"`
	CeilingPrice *int64 `db:"ceiling_price" json:"ceiling_price,omitempty"`

	MinStay                int      `db:"min_stay" json:"min_stay"`
	MaxStay                *int     `db:"max_stay" json:"max_stay,omitempty"`
	WeeklyDiscountPercent  *float64 `db:"weekly_discount_percent" json:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent *float64 `db:"monthly_discount_percent" json:"monthly_discount_percent,omitempty"`
	WeekendMarkupPercent   *float64 `db:"weekend_markup_percent" json:"weekend_markup_percent,omitempty"`

	Status  types.PropertyStatus `db:"status" json:"status"`
	PMSID   *string              `db:"pms_id" json:"pms_id,omitempty"`
	PMSType *types.PMSType       `db:"pms_type" json:"pms_type,omitempty"`

	types.BaseModel
}

// IsPMSLinked reports whether the property mirrors a remote PMS listing
func (p *Property) IsPMSLinked() bool {
	return p.PMSID != nil && *p.PMSID != "" && p.PMSType != nil
}

// HasLocation reports whether lat/lon coordinates are known
func (p *Property) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Validate enforces the price ladder and capacity invariants
func (p *Property) Validate() error {
	if p.Capacity < 1 {
		return ierr.NewError("capacity must be at least 1").
			WithHint("Capacity must be a positive number of guests").
			Mark(ierr.ErrValidation)
	}
	if p.FloorPrice < 0 {
		return ierr.NewError("floor price cannot be negative").
			WithHint("Floor price must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.FloorPrice > p.BasePrice {
		return ierr.NewError("floor price above base price").
			WithHint("Floor price cannot exceed the base price").
			Mark(ierr.ErrValidation)
	}
	if p.CeilingPrice != nil && p.BasePrice > *p.CeilingPrice {
		return ierr.NewError("base price above ceiling price").
			WithHint("Base price cannot exceed the ceiling price").
			Mark(ierr.ErrValidation)
	}
	if !p.Strategy.Validate() {
		return ierr.NewError("unknown pricing strategy").
			WithHint("Strategy must be Prudent, Équilibré or Agressif").
			Mark(ierr.ErrValidation)
	}
	return nil
}

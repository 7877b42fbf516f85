package dto

import (
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

// CreatePropertyRequest creates a property. Monetary fields are minor
// currency units.
type CreatePropertyRequest struct {
	Address      string   `json:"address" validate:"required"`
	City         string   `json:"city" validate:"required"`
	Country      string   `json:"country" validate:"required"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	PropertyType string   `json:"property_type" validate:"required"`
	Capacity     int      `json:"capacity" validate:"required,min=1"`
	Surface      float64  `json:"surface" validate:"omitempty,gt=0"`
	Amenities    []string `json:"amenities,omitempty"`

	Strategy     types.PricingStrategy `json:"strategy,omitempty"`
	FloorPrice   int64                 `json:"floor_price" validate:"min=0"`
	BasePrice    int64                 `json:"base_price" validate:"required,gt=0"`
	CeilingPrice *int64                `json:"ceiling_price,omitempty"`

	MinStay                int      `json:"min_stay,omitempty"`
	MaxStay                *int     `json:"max_stay,omitempty"`
	WeeklyDiscountPercent  *float64 `json:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent *float64 `json:"monthly_discount_percent,omitempty"`
	WeekendMarkupPercent   *float64 `json:"weekend_markup_percent,omitempty"`
}

func (r *CreatePropertyRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToProperty converts the request to the domain model
func (r *CreatePropertyRequest) ToProperty() *property.Property {
	minStay := r.MinStay
	if minStay < 1 {
		minStay = 1
	}
	return &property.Property{
		Address:                r.Address,
		City:                   r.City,
		Country:                r.Country,
		Latitude:               r.Latitude,
		Longitude:              r.Longitude,
		PropertyType:           r.PropertyType,
		Capacity:               r.Capacity,
		Surface:                r.Surface,
		Amenities:              r.Amenities,
		Strategy:               r.Strategy,
		FloorPrice:             r.FloorPrice,
		BasePrice:              r.BasePrice,
		CeilingPrice:           r.CeilingPrice,
		MinStay:                minStay,
		MaxStay:                r.MaxStay,
		WeeklyDiscountPercent:  r.WeeklyDiscountPercent,
		MonthlyDiscountPercent: r.MonthlyDiscountPercent,
		WeekendMarkupPercent:   r.WeekendMarkupPercent,
	}
}

// UpdateStrategyRequest changes the price ladder
type UpdateStrategyRequest struct {
	Strategy     *types.PricingStrategy `json:"strategy,omitempty"`
	FloorPrice   *int64                 `json:"floor_price,omitempty" validate:"omitempty,min=0"`
	BasePrice    *int64                 `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	CeilingPrice *int64                 `json:"ceiling_price,omitempty" validate:"omitempty,gt=0"`
}

func (r *UpdateStrategyRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateStrategyRequest) ToUpdate() service.StrategyUpdate {
	return service.StrategyUpdate{
		Strategy:     r.Strategy,
		FloorPrice:   r.FloorPrice,
		BasePrice:    r.BasePrice,
		CeilingPrice: r.CeilingPrice,
	}
}

// UpdateRulesRequest changes stay rules and discounts
type UpdateRulesRequest struct {
	MinStay                *int     `json:"min_stay,omitempty" validate:"omitempty,min=1"`
	MaxStay                *int     `json:"max_stay,omitempty" validate:"omitempty,min=1"`
	WeeklyDiscountPercent  *float64 `json:"weekly_discount_percent,omitempty" validate:"omitempty,min=0,max=100"`
	MonthlyDiscountPercent *float64 `json:"monthly_discount_percent,omitempty" validate:"omitempty,min=0,max=100"`
	WeekendMarkupPercent   *float64 `json:"weekend_markup_percent,omitempty" validate:"omitempty,min=0,max=100"`
}

func (r *UpdateRulesRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateRulesRequest) ToUpdate() service.RulesUpdate {
	return service.RulesUpdate{
		MinStay:                r.MinStay,
		MaxStay:                r.MaxStay,
		WeeklyDiscountPercent:  r.WeeklyDiscountPercent,
		MonthlyDiscountPercent: r.MonthlyDiscountPercent,
		WeekendMarkupPercent:   r.WeekendMarkupPercent,
	}
}

// UpdateStatusRequest moves the property through the status machine
type UpdateStatusRequest struct {
	Status types.PropertyStatus `json:"status" validate:"required"`
}

func (r *UpdateStatusRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ManualOverrideRequest pins one day's price, optionally locking it
type ManualOverrideRequest struct {
	Date   string `json:"date" validate:"required"`
	Price  int64  `json:"price" validate:"required,gt=0"`
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

func (r *ManualOverrideRequest) Validate() error {
	return validator.ValidateRequest(r)
}

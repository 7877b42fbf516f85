package dto

import (
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

// UpdateRevenueTargetsRequest replaces the monthly revenue targets.
// Keys are YYYY-MM, values minor currency units.
type UpdateRevenueTargetsRequest struct {
	Targets types.RevenueTargets `json:"targets" validate:"required"`
}

func (r *UpdateRevenueTargetsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// UpdateAutoPricingRequest toggles the nightly auto-pricing run
type UpdateAutoPricingRequest struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone,omitempty"`
}

func (r *UpdateAutoPricingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

package dto

import (
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

// ConnectPMSRequest links a PMS account. Credentials are backend specific:
// Smoobu expects api_key, Beds24 expects token.
type ConnectPMSRequest struct {
	Type        types.PMSType  `json:"type" validate:"required"`
	Credentials types.Metadata `json:"credentials" validate:"required"`
}

func (r *ConnectPMSRequest) Validate() error {
	return validator.ValidateRequest(r)
}

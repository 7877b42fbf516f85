package dto

import (
	"github.com/stayprice/stayprice/internal/validator"
)

// CreateGroupRequest creates an empty property group
type CreateGroupRequest struct {
	Name       string `json:"name" validate:"required"`
	SyncPrices bool   `json:"sync_prices"`
}

func (r *CreateGroupRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// GroupMemberRequest adds or promotes a property within a group
type GroupMemberRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
}

func (r *GroupMemberRequest) Validate() error {
	return validator.ValidateRequest(r)
}

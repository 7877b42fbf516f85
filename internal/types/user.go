package types

// UserRole controls what a team member is allowed to do
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleMember  UserRole = "member"
)

func (r UserRole) Validate() bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleMember:
		return true
	}
	return false
}

// CanChangePropertyStatus reports whether the role may archive or restore
// properties
func (r UserRole) CanChangePropertyStatus() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}

// CanManageTeam reports whether the role may perform destructive team
// operations
func (r UserRole) CanManageTeam() bool {
	return r == UserRoleAdmin
}

// SubscriptionStatus mirrors the payment provider's subscription lifecycle
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) IsTrialing() bool {
	return s == SubscriptionStatusTrialing
}

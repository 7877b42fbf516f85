package tenant

import (
	"time"

	"github.com/stayprice/stayprice/internal/types"
)

// Tenant is an operator account. Team membership is modeled through
// team_id; the team of a fresh account is lazily initialized to the
// account's own id on first read.
type Tenant struct {
	ID                   string                   `db:"id" json:"id"`
	Email                string                   `db:"email" json:"email"`
	Role                 types.UserRole           `db:"role" json:"role"`
	TeamID               string                   `db:"team_id" json:"team_id"`
	Timezone             string                   `db:"timezone" json:"timezone"`
	Language             string                   `db:"language" json:"language"`
	Currency             string                   `db:"currency" json:"currency"`
	SubscriptionStatus   types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	SubscriptionID       *string                  `db:"subscription_id" json:"subscription_id,omitempty"`
	CustomerID           *string                  `db:"customer_id" json:"customer_id,omitempty"`
	AccessDisabled       bool                     `db:"access_disabled" json:"access_disabled"`
	Banned               bool                     `db:"banned" json:"banned"`
	PaymentFailed        bool                     `db:"payment_failed" json:"payment_failed"`
	PMSSyncEnabled       bool                     `db:"pms_sync_enabled" json:"pms_sync_enabled"`
	PMSSyncStoppedReason *string                  `db:"pms_sync_stopped_reason" json:"pms_sync_stopped_reason,omitempty"`
	RevenueTargets       types.RevenueTargets     `db:"revenue_targets" json:"revenue_targets"`

	// Columns are selected with "auto_pricing.x" aliases so sqlx can scan
	// into the nested struct
	AutoPricing AutoPricing `db:"auto_pricing" json:"auto_pricing"`

	types.BaseModel
}

// AutoPricing is the per-tenant scheduled pricing state
type AutoPricing struct {
	Enabled           bool       `db:"enabled" json:"enabled"`
	Timezone          string     `db:"timezone" json:"timezone"`
	LastAttempt       *time.Time `db:"last_attempt" json:"last_attempt,omitempty"`
	LastSuccessfulRun *time.Time `db:"last_successful_run" json:"last_successful_run,omitempty"`
	FailedAttempts    int        `db:"failed_attempts" json:"failed_attempts"`
}

// EffectiveTeamID returns the team id, falling back to the tenant's own id
// for accounts created before teams existed
func (t *Tenant) EffectiveTeamID() string {
	if t.TeamID != "" {
		return t.TeamID
	}
	return t.ID
}

// Location resolves the tenant's scheduling timezone, preferring the
// auto-pricing override over the account timezone
func (t *Tenant) Location() (*time.Location, error) {
	tz := t.AutoPricing.Timezone
	if tz == "" {
		tz = t.Timezone
	}
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

package service

import (
	"context"
	"time"

	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// TenantService owns operator accounts: team resolution, revenue targets
// and the auto-pricing settings the scheduler reads.
type TenantService struct {
	ServiceParams
}

func NewTenantService(params ServiceParams) *TenantService {
	return &TenantService{ServiceParams: params}
}

// GetTenant loads a tenant, lazily initializing team_id to the tenant's own
// id for accounts predating teams. The write is persisted so later reads
// and SQL joins see the same team.
func (s *TenantService) GetTenant(ctx context.Context, userID string) (*tenant.Tenant, error) {
	t, err := s.TenantRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ierr.NewError("tenant not found").
			WithHintf("No account exists for user %s", userID).
			Mark(ierr.ErrNotFound)
	}

	if t.TeamID == "" {
		t.TeamID = t.ID
		if err := s.TenantRepo.Update(ctx, t); err != nil {
			return nil, err
		}
		s.Logger.Infow("initialized team for legacy account", "user_id", t.ID)
	}
	return t, nil
}

// RequireActiveTenant loads the tenant and rejects banned or
// access-disabled accounts
func (s *TenantService) RequireActiveTenant(ctx context.Context, userID string) (*tenant.Tenant, error) {
	t, err := s.GetTenant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t.Banned || t.AccessDisabled {
		return nil, ierr.NewError("account access disabled").
			WithHint("Your account is suspended; update your payment method to restore access").
			Mark(ierr.ErrPermissionDenied)
	}
	return t, nil
}

// UpdateRevenueTargets replaces the tenant's monthly revenue targets.
// Keys must be YYYY-MM, values minor currency units.
func (s *TenantService) UpdateRevenueTargets(ctx context.Context, userID string, targets types.RevenueTargets) (*tenant.Tenant, error) {
	t, err := s.GetTenant(ctx, userID)
	if err != nil {
		return nil, err
	}

	for month, amount := range targets {
		if !types.IsValidMonthKey(month) {
			return nil, ierr.NewError("invalid revenue target month").
				WithHintf("Month key %q must be formatted YYYY-MM", month).
				WithReportableDetails(map[string]any{"month": month}).
				Mark(ierr.ErrValidation)
		}
		if amount < 0 {
			return nil, ierr.NewError("negative revenue target").
				WithHintf("Target for %s cannot be negative", month).
				Mark(ierr.ErrValidation)
		}
	}

	t.RevenueTargets = targets
	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func isValidTimezone(tz string) bool {
	_, err := time.LoadLocation(tz)
	return err == nil
}

// UpdateAutoPricing changes the scheduled-pricing settings. Disabling the
// scheduler clears the failure counter so a later re-enable starts clean.
func (s *TenantService) UpdateAutoPricing(ctx context.Context, userID string, enabled bool, timezone string) (*tenant.Tenant, error) {
	t, err := s.GetTenant(ctx, userID)
	if err != nil {
		return nil, err
	}

	if timezone != "" {
		if !isValidTimezone(timezone) {
			return nil, ierr.NewError("unknown timezone").
				WithHintf("Timezone %q is not a valid IANA name", timezone).
				Mark(ierr.ErrValidation)
		}
		t.AutoPricing.Timezone = timezone
	}

	t.AutoPricing.Enabled = enabled
	if !enabled {
		t.AutoPricing.FailedAttempts = 0
	}

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/propertylog"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

// PropertyService owns property mutations. Every write authorizes against
// the tenant's team, appends an audit row and triggers billing
// reconciliation when the topology changed. Strategy and rules changes on
// PMS-linked properties are pushed remotely before the local commit.
type PropertyService struct {
	ServiceParams
	tenants *TenantService
	billing *BillingService
	sync    *PMSSyncService
	pricing *PricingService
}

func NewPropertyService(
	params ServiceParams,
	tenants *TenantService,
	billing *BillingService,
	sync *PMSSyncService,
	pricing *PricingService,
) *PropertyService {
	return &PropertyService{
		ServiceParams: params,
		tenants:       tenants,
		billing:       billing,
		sync:          sync,
		pricing:       pricing,
	}
}

// authorize loads the tenant and checks the property belongs to its team
func (s *PropertyService) authorize(ctx context.Context, propertyID string) (*tenant.Tenant, *property.Property, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, nil, err
	}

	prop, err := s.PropertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if prop == nil {
		return nil, nil, ierr.NewError("property not found").
			WithHintf("No property exists with id %s", propertyID).
			Mark(ierr.ErrNotFound)
	}
	if prop.TeamID != t.EffectiveTeamID() && prop.OwnerID != t.ID {
		return nil, nil, ierr.NewError("property belongs to another team").
			WithHint("You can only manage properties of your own team").
			Mark(ierr.ErrPermissionDenied)
	}
	return t, prop, nil
}

// Create validates and persists a new property, enforcing the trial cap,
// then reconciles billing best-effort
func (s *PropertyService) Create(ctx context.Context, prop *property.Property) (*property.Property, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.billing.EnforceTrialCap(ctx, t, 1); err != nil {
		return nil, err
	}

	prop.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROPERTY)
	prop.TeamID = t.EffectiveTeamID()
	prop.OwnerID = t.ID
	if prop.Status == "" {
		prop.Status = types.PropertyStatusActive
	}
	if prop.Strategy == "" {
		prop.Strategy = types.PricingStrategyBalanced
	}
	prop.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := prop.Validate(); err != nil {
		return nil, err
	}
	if err := s.PropertyRepo.Create(ctx, prop); err != nil {
		return nil, err
	}

	s.pricing.appendLog(ctx, t, prop, types.LogActionCreate, map[string]any{
		"address": prop.Address,
		"city":    prop.City,
	})
	s.billing.ReconcileBestEffort(ctx, t)
	return prop, nil
}

// Get returns a property after the team check
func (s *PropertyService) Get(ctx context.Context, propertyID string) (*property.Property, error) {
	_, prop, err := s.authorize(ctx, propertyID)
	return prop, err
}

// List returns the team's properties
func (s *PropertyService) List(ctx context.Context) ([]*property.Property, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	return s.PropertyRepo.ListByTeam(ctx, t.EffectiveTeamID())
}

// StrategyUpdate is the price ladder part of a property update
type StrategyUpdate struct {
	Strategy     *types.PricingStrategy
	FloorPrice   *int64
	BasePrice    *int64
	CeilingPrice *int64
}

// UpdateStrategy changes the price ladder. On PMS-linked properties with
// sync enabled the remote push happens first; a push failure aborts the
// local write so a later read still returns the previous values.
func (s *PropertyService) UpdateStrategy(ctx context.Context, propertyID string, update StrategyUpdate) (*property.Property, error) {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	next := *prop
	if update.Strategy != nil {
		next.Strategy = *update.Strategy
	}
	if update.FloorPrice != nil {
		next.FloorPrice = *update.FloorPrice
	}
	if update.BasePrice != nil {
		next.BasePrice = *update.BasePrice
	}
	if update.CeilingPrice != nil {
		next.CeilingPrice = update.CeilingPrice
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	settings := pms.Settings{
		BasePrice:  lo.ToPtr(float64(next.BasePrice) / 100),
		FloorPrice: lo.ToPtr(float64(next.FloorPrice) / 100),
	}
	if next.CeilingPrice != nil {
		settings.CeilingPrice = lo.ToPtr(float64(*next.CeilingPrice) / 100)
	}
	if err := s.sync.PushSettings(ctx, t, prop, settings); err != nil {
		return nil, err
	}

	if err := s.PropertyRepo.Update(ctx, &next); err != nil {
		return nil, err
	}

	s.pricing.appendLog(ctx, t, &next, types.LogActionStrategyChange, map[string]any{
		"strategy":    next.Strategy,
		"floor_price": next.FloorPrice,
		"base_price":  next.BasePrice,
	})
	return &next, nil
}

// RulesUpdate is the stay-rules part of a property update
type RulesUpdate struct {
	MinStay                *int
	MaxStay                *int
	WeeklyDiscountPercent  *float64
	MonthlyDiscountPercent *float64
	WeekendMarkupPercent   *float64
}

// UpdateRules changes stay rules and discounts with the same remote-first
// contract as UpdateStrategy
func (s *PropertyService) UpdateRules(ctx context.Context, propertyID string, update RulesUpdate) (*property.Property, error) {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	next := *prop
	if update.MinStay != nil {
		if *update.MinStay < 1 {
			return nil, ierr.NewError("minimum stay below one night").
				WithHint("Minimum stay must be at least 1 night").
				Mark(ierr.ErrValidation)
		}
		next.MinStay = *update.MinStay
	}
	if update.MaxStay != nil {
		next.MaxStay = update.MaxStay
	}
	if update.WeeklyDiscountPercent != nil {
		next.WeeklyDiscountPercent = update.WeeklyDiscountPercent
	}
	if update.MonthlyDiscountPercent != nil {
		next.MonthlyDiscountPercent = update.MonthlyDiscountPercent
	}
	if update.WeekendMarkupPercent != nil {
		next.WeekendMarkupPercent = update.WeekendMarkupPercent
	}

	settings := pms.Settings{
		MinStay:                &next.MinStay,
		MaxStay:                next.MaxStay,
		WeeklyDiscountPercent:  next.WeeklyDiscountPercent,
		MonthlyDiscountPercent: next.MonthlyDiscountPercent,
		WeekendMarkupPercent:   next.WeekendMarkupPercent,
	}
	if err := s.sync.PushSettings(ctx, t, prop, settings); err != nil {
		return nil, err
	}

	if err := s.PropertyRepo.Update(ctx, &next); err != nil {
		return nil, err
	}

	s.pricing.appendLog(ctx, t, &next, types.LogActionRulesChange, map[string]any{
		"min_stay": next.MinStay,
	})
	return &next, nil
}

// UpdateStatus moves the property through the status state machine. Only
// admins and managers may change status.
func (s *PropertyService) UpdateStatus(ctx context.Context, propertyID string, status types.PropertyStatus) (*property.Property, error) {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if !t.Role.CanChangePropertyStatus() {
		return nil, ierr.NewError("insufficient role for status change").
			WithHint("Only admins and managers can archive or restore properties").
			Mark(ierr.ErrPermissionDenied)
	}
	if !prop.Status.CanTransitionTo(status) {
		return nil, ierr.NewError("invalid status transition").
			WithHintf("Cannot move a property from %s to %s", prop.Status, status).
			WithReportableDetails(map[string]any{
				"from": prop.Status,
				"to":   status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	previous := prop.Status
	prop.Status = status
	if err := s.PropertyRepo.Update(ctx, prop); err != nil {
		return nil, err
	}

	s.pricing.appendLog(ctx, t, prop, types.LogActionStatusChange, map[string]any{
		"from": previous,
		"to":   status,
	})
	return prop, nil
}

// Delete removes a property and reconciles billing
func (s *PropertyService) Delete(ctx context.Context, propertyID string) error {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return err
	}

	if g, err := s.GroupRepo.GetByProperty(ctx, prop.ID); err != nil {
		return err
	} else if g != nil {
		if err := s.GroupRepo.RemoveProperty(ctx, g.ID, prop.ID); err != nil {
			return err
		}
	}

	if err := s.PropertyRepo.Delete(ctx, prop.ID); err != nil {
		return err
	}

	s.billing.ReconcileBestEffort(ctx, t)
	return nil
}

// SetManualOverride writes one manually priced day, optionally locking it
// against automated rewrites. Manual writes are local-only: the next rate
// push carries them when unlocked, and locked days never leave.
func (s *PropertyService) SetManualOverride(ctx context.Context, propertyID string, date time.Time, price int64, locked bool, reason string) (*priceoverride.PriceOverride, error) {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if price < prop.FloorPrice {
		return nil, ierr.NewError("price below floor").
			WithHintf("The price cannot go below the floor of %d", prop.FloorPrice).
			Mark(ierr.ErrValidation)
	}
	if prop.CeilingPrice != nil && price > *prop.CeilingPrice {
		return nil, ierr.NewError("price above ceiling").
			WithHintf("The price cannot exceed the ceiling of %d", *prop.CeilingPrice).
			Mark(ierr.ErrValidation)
	}

	if reason == "" {
		reason = "Prix fixé manuellement"
	}
	override := &priceoverride.PriceOverride{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE_OVERRIDE),
		PropertyID: prop.ID,
		Date:       types.TruncateToDay(date),
		Price:      price,
		IsLocked:   locked,
		Reason:     reason,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if err := s.PriceOverrideRepo.Upsert(ctx, override); err != nil {
		return nil, err
	}

	s.pricing.appendLog(ctx, t, prop, types.LogActionManualOverride, map[string]any{
		"date":   override.DateKey(),
		"price":  price,
		"locked": locked,
	})
	return override, nil
}

// GetCalendar returns the property's priced days over the rolling window
func (s *PropertyService) GetCalendar(ctx context.Context, propertyID string) ([]*priceoverride.PriceOverride, error) {
	_, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	today := types.TodayUTC()
	return s.PriceOverrideRepo.ListByPropertyRange(ctx, prop.ID, today, today.AddDate(0, 0, types.CalendarDays-1))
}

// GenerateCalendar runs the pricing orchestrator for one property on demand
func (s *PropertyService) GenerateCalendar(ctx context.Context, propertyID string) (*CalendarResult, error) {
	t, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.pricing.RunOrchestrator(ctx, t, prop)
}

// GetLogs returns the property's audit trail
func (s *PropertyService) GetLogs(ctx context.Context, propertyID string) ([]*propertylog.PropertyLog, error) {
	_, prop, err := s.authorize(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.PropertyLogRepo.ListByProperty(ctx, prop.ID)
}

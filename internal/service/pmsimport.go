package service

import (
	"context"
	"time"

	integrationdomain "github.com/stayprice/stayprice/internal/domain/integration"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/domain/usedlisting"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

// defaultImportLookbackDays bounds the reservation backfill on first import
const defaultImportLookbackDays = 90

// PMSImportService connects PMS accounts and imports their listings as
// local properties. Imports honor the trial cap and the global
// used-listing-id guard against trial recycling.
type PMSImportService struct {
	ServiceParams
	tenants *TenantService
	billing *BillingService
	sync    *PMSSyncService
}

func NewPMSImportService(params ServiceParams, tenants *TenantService, billing *BillingService, sync *PMSSyncService) *PMSImportService {
	return &PMSImportService{
		ServiceParams: params,
		tenants:       tenants,
		billing:       billing,
		sync:          sync,
	}
}

// Connect verifies the credentials against the backend and stores the
// integration. Reconnecting replaces the stored credentials.
func (s *PMSImportService) Connect(ctx context.Context, pmsType types.PMSType, credentials types.Metadata) (*integrationdomain.Integration, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	if !s.PMSRegistry.Supports(pmsType) {
		return nil, ierr.NewError("unsupported pms type").
			WithHintf("PMS type %s is not supported", pmsType).
			Mark(ierr.ErrValidation)
	}

	adapter, err := s.PMSRegistry.Resolve(pmsType, credentials)
	if err != nil {
		return nil, err
	}
	if err := adapter.TestConnection(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not authenticate against %s with these credentials", pmsType).
			Mark(ierr.ErrRemoteProvider)
	}

	integ := &integrationdomain.Integration{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INTEGRATION),
		UserID:      t.ID,
		Type:        pmsType,
		Credentials: credentials,
		ConnectedAt: time.Now().UTC(),
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	if err := s.IntegrationRepo.Create(ctx, integ); err != nil {
		return nil, err
	}

	s.Logger.Infow("pms integration connected", "user_id", t.ID, "type", pmsType)
	return integ, nil
}

// Disconnect removes the integration. Imported properties stay but lose
// their sync path until reconnection.
func (s *PMSImportService) Disconnect(ctx context.Context, pmsType types.PMSType) error {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return err
	}
	return s.IntegrationRepo.Delete(ctx, t.ID, pmsType)
}

// ListIntegrations returns the tenant's connected PMS accounts
func (s *PMSImportService) ListIntegrations(ctx context.Context) ([]*integrationdomain.Integration, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	return s.IntegrationRepo.ListByUser(ctx, t.ID)
}

// ImportOutcome summarizes a property import
type ImportOutcome struct {
	Imported     int           `json:"imported"`
	Skipped      int           `json:"skipped"`
	Reservations *ImportResult `json:"reservations,omitempty"`
}

// ImportProperties pulls the remote listings and creates a local property
// per new listing. Listings already imported are skipped, listings claimed
// by another account are rejected during trial, and the trial cap applies
// to the batch as a whole.
func (s *PMSImportService) ImportProperties(ctx context.Context, pmsType types.PMSType) (*ImportOutcome, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	integ, err := s.IntegrationRepo.GetByUserAndType(ctx, t.ID, pmsType)
	if err != nil {
		return nil, err
	}
	if integ == nil {
		return nil, ierr.NewError("pms integration not connected").
			WithHintf("Connect your %s account before importing", pmsType).
			Mark(ierr.ErrInvalidOperation)
	}

	adapter, err := s.PMSRegistry.Resolve(integ.Type, integ.Credentials)
	if err != nil {
		return nil, err
	}
	listings, err := adapter.GetProperties(ctx)
	if err != nil {
		return nil, err
	}

	fresh := make([]pms.NormalizedProperty, 0, len(listings))
	outcome := &ImportOutcome{}
	for _, listing := range listings {
		existing, err := s.PropertyRepo.GetByPMSID(ctx, t.EffectiveTeamID(), listing.PMSID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			outcome.Skipped++
			continue
		}

		if t.SubscriptionStatus.IsTrialing() {
			claimed, err := s.UsedListingRepo.Exists(ctx, listing.PMSID)
			if err != nil {
				return nil, err
			}
			if claimed {
				return nil, ierr.NewError("listing already used in a trial").
					WithHintf("Listing %s was already used by a paid account and cannot join a new trial", listing.PMSID).
					WithReportableDetails(map[string]any{"listing_id": listing.PMSID}).
					Mark(ierr.ErrPermissionDenied)
			}
		}
		fresh = append(fresh, listing)
	}

	if err := s.billing.EnforceTrialCap(ctx, t, len(fresh)); err != nil {
		return nil, err
	}

	for _, listing := range fresh {
		if err := s.createFromListing(ctx, t, pmsType, listing); err != nil {
			return nil, err
		}
		outcome.Imported++
	}

	if outcome.Imported > 0 {
		s.billing.ReconcileBestEffort(ctx, t)

		from := time.Now().UTC().AddDate(0, 0, -defaultImportLookbackDays)
		to := time.Now().UTC().AddDate(0, 0, types.CalendarDays)
		reservations, err := s.sync.ImportReservations(ctx, t, from, to)
		if err != nil {
			s.Logger.Warnw("reservation backfill failed after import",
				"user_id", t.ID, "error", err)
		} else {
			outcome.Reservations = reservations
		}
	}
	return outcome, nil
}

func (s *PMSImportService) createFromListing(ctx context.Context, t *tenant.Tenant, pmsType types.PMSType, listing pms.NormalizedProperty) error {
	pmsID := listing.PMSID
	capacity := listing.Capacity
	if capacity < 1 {
		capacity = 2
	}

	prop := &property.Property{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROPERTY),
		TeamID:       t.EffectiveTeamID(),
		OwnerID:      t.ID,
		Address:      listing.Name,
		PropertyType: "appartement",
		Capacity:     capacity,
		Strategy:     types.PricingStrategyBalanced,
		MinStay:      1,
		Status:       types.PropertyStatusActive,
		PMSID:        &pmsID,
		PMSType:      &pmsType,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	if listing.Location != nil {
		if listing.Location.Address != "" {
			prop.Address = listing.Location.Address
		}
		prop.City = listing.Location.City
		prop.Country = listing.Location.Country
		prop.Latitude = listing.Location.Latitude
		prop.Longitude = listing.Location.Longitude
	}

	if err := s.PropertyRepo.Create(ctx, prop); err != nil {
		return err
	}

	// Paid accounts claim the listing immediately; trials claim on checkout
	if !t.SubscriptionStatus.IsTrialing() {
		err := s.UsedListingRepo.Register(ctx, &usedlisting.UsedListing{
			ListingID: pmsID,
			UserID:    t.ID,
			Source:    string(pmsType),
		})
		if err != nil {
			s.Logger.Warnw("failed to register imported listing",
				"listing_id", pmsID, "error", err)
		}
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/stayprice/stayprice/internal/domain/booking"
	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

// PMSSyncService is the gateway between local mutations and the remote PMS.
// Settings, rules and rate pushes are remote-first: a remote failure aborts
// the local write. Reservation pushes are best-effort: the local state stays
// authoritative and remote failures are only logged.
type PMSSyncService struct {
	ServiceParams
}

func NewPMSSyncService(params ServiceParams) *PMSSyncService {
	return &PMSSyncService{ServiceParams: params}
}

// ImportResult counts the outcome of a reservation import
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// resolveAdapter builds the adapter for a PMS-linked property, or returns
// (nil, nil) when no outbound call should be made: sync disabled for the
// tenant, or the property is not linked.
func (s *PMSSyncService) resolveAdapter(ctx context.Context, t *tenant.Tenant, prop *property.Property) (pms.Adapter, error) {
	if !t.PMSSyncEnabled || !prop.IsPMSLinked() {
		return nil, nil
	}

	integ, err := s.IntegrationRepo.GetByUserAndType(ctx, t.ID, *prop.PMSType)
	if err != nil {
		return nil, err
	}
	if integ == nil {
		return nil, ierr.NewError("pms integration not connected").
			WithHintf("Connect your %s account before syncing", *prop.PMSType).
			Mark(ierr.ErrInvalidOperation)
	}

	return s.PMSRegistry.Resolve(integ.Type, integ.Credentials)
}

// PushSettings pushes a settings change to the PMS. A remote failure is
// returned to the caller, which must abort the local write.
func (s *PMSSyncService) PushSettings(ctx context.Context, t *tenant.Tenant, prop *property.Property, settings pms.Settings) error {
	adapter, err := s.resolveAdapter(ctx, t, prop)
	if err != nil {
		return err
	}
	if adapter == nil {
		return nil
	}

	if err := adapter.UpdatePropertySettings(ctx, *prop.PMSID, settings); err != nil {
		s.Logger.Errorw("pms settings push failed",
			"property_id", prop.ID, "pms_id", *prop.PMSID, "error", err)
		return err
	}
	return nil
}

// PushRates pushes a batch of priced days to the PMS. Locked days must be
// filtered out by the caller; same-price runs are coalesced by the adapter.
// A remote failure is returned to the caller, which must abort the local
// upsert.
func (s *PMSSyncService) PushRates(ctx context.Context, t *tenant.Tenant, prop *property.Property, overrides []*priceoverride.PriceOverride) error {
	adapter, err := s.resolveAdapter(ctx, t, prop)
	if err != nil {
		return err
	}
	if adapter == nil || len(overrides) == 0 {
		return nil
	}

	updates := make([]pms.RateUpdate, 0, len(overrides))
	for _, o := range overrides {
		updates = append(updates, pms.RateUpdate{
			Date:  o.DateKey(),
			Price: float64(o.Price) / 100,
		})
	}

	if err := adapter.UpdateBatchRates(ctx, *prop.PMSID, updates); err != nil {
		s.Logger.Errorw("pms rate push failed",
			"property_id", prop.ID, "pms_id", *prop.PMSID,
			"days", len(updates), "error", err)
		return err
	}
	return nil
}

// PushReservationCreate mirrors a locally created booking to the PMS. The
// returned remote id may be empty when the push was skipped or failed;
// failures are logged, never surfaced.
func (s *PMSSyncService) PushReservationCreate(ctx context.Context, t *tenant.Tenant, prop *property.Property, b *booking.Booking) string {
	adapter, err := s.resolveAdapter(ctx, t, prop)
	if err != nil || adapter == nil {
		if err != nil {
			s.Logger.Warnw("skipping reservation push", "booking_id", b.ID, "error", err)
		}
		return ""
	}

	remote, err := adapter.CreateReservation(ctx, *prop.PMSID, reservationData(b))
	if err != nil {
		s.Logger.Errorw("pms reservation create failed",
			"booking_id", b.ID, "property_id", prop.ID, "error", err)
		return ""
	}
	return remote.PMSID
}

// PushReservationUpdate mirrors a booking change to the PMS, best-effort
func (s *PMSSyncService) PushReservationUpdate(ctx context.Context, t *tenant.Tenant, prop *property.Property, b *booking.Booking) {
	if !b.IsPMSMirror() {
		return
	}
	adapter, err := s.resolveAdapter(ctx, t, prop)
	if err != nil || adapter == nil {
		return
	}

	if _, err := adapter.UpdateReservation(ctx, *b.PMSBookingID, reservationData(b)); err != nil {
		s.Logger.Errorw("pms reservation update failed",
			"booking_id", b.ID, "pms_booking_id", *b.PMSBookingID, "error", err)
	}
}

// PushReservationDelete mirrors a booking deletion to the PMS, best-effort
func (s *PMSSyncService) PushReservationDelete(ctx context.Context, t *tenant.Tenant, prop *property.Property, b *booking.Booking) {
	if !b.IsPMSMirror() {
		return
	}
	adapter, err := s.resolveAdapter(ctx, t, prop)
	if err != nil || adapter == nil {
		return
	}

	if err := adapter.DeleteReservation(ctx, *b.PMSBookingID); err != nil {
		s.Logger.Errorw("pms reservation delete failed",
			"booking_id", b.ID, "pms_booking_id", *b.PMSBookingID, "error", err)
	}
}

// ImportReservations pulls remote reservations for all of the tenant's
// linked properties over [from, to] and upserts them locally keyed by
// (property_id, pms_booking_id). Remote reservations never go back out.
func (s *PMSSyncService) ImportReservations(ctx context.Context, t *tenant.Tenant, from, to time.Time) (*ImportResult, error) {
	integrations, err := s.IntegrationRepo.ListByUser(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if len(integrations) == 0 {
		return nil, ierr.NewError("no pms integration connected").
			WithHint("Connect a PMS account before importing reservations").
			Mark(ierr.ErrInvalidOperation)
	}

	properties, err := s.PropertyRepo.ListByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		return nil, err
	}
	byPMSID := make(map[types.PMSType]map[string]*property.Property)
	for _, p := range properties {
		if !p.IsPMSLinked() {
			continue
		}
		if byPMSID[*p.PMSType] == nil {
			byPMSID[*p.PMSType] = make(map[string]*property.Property)
		}
		byPMSID[*p.PMSType][*p.PMSID] = p
	}

	result := &ImportResult{}
	for _, integ := range integrations {
		adapter, err := s.PMSRegistry.Resolve(integ.Type, integ.Credentials)
		if err != nil {
			return nil, err
		}

		reservations, err := adapter.GetReservations(ctx, types.FormatDate(from), types.FormatDate(to))
		if err != nil {
			return nil, err
		}

		for _, res := range reservations {
			prop := byPMSID[integ.Type][res.PropertyID]
			if prop == nil {
				continue
			}
			created, err := s.upsertRemoteReservation(ctx, prop, res)
			if err != nil {
				s.Logger.Warnw("failed to upsert imported reservation",
					"property_id", prop.ID, "pms_booking_id", res.PMSID, "error", err)
				result.Failed++
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if err := s.IntegrationRepo.UpdateLastSync(ctx, integ.ID); err != nil {
			s.Logger.Warnw("failed to stamp integration last sync",
				"integration_id", integ.ID, "error", err)
		}
	}
	return result, nil
}

func (s *PMSSyncService) upsertRemoteReservation(ctx context.Context, prop *property.Property, res pms.NormalizedReservation) (bool, error) {
	start, err := types.ParseDate(res.StartDate)
	if err != nil {
		return false, ierr.WithError(err).
			WithHintf("Reservation %s has an invalid start date", res.PMSID).
			Mark(ierr.ErrValidation)
	}
	end, err := types.ParseDate(res.EndDate)
	if err != nil {
		return false, ierr.WithError(err).
			WithHintf("Reservation %s has an invalid end date", res.PMSID).
			Mark(ierr.ErrValidation)
	}

	existing, err := s.BookingRepo.GetByPMSBookingID(ctx, prop.ID, res.PMSID)
	if err != nil {
		return false, err
	}

	status := types.BookingStatus(res.Status)
	if !status.Validate() {
		status = types.BookingStatusConfirmed
	}

	var revenue *int64
	if res.TotalPrice != nil {
		cents := int64(*res.TotalPrice * 100)
		revenue = &cents
	}

	if existing == nil {
		pmsBookingID := res.PMSID
		b := &booking.Booking{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BOOKING),
			PropertyID:    prop.ID,
			StartDate:     start,
			EndDate:       end,
			Revenue:       revenue,
			Channel:       res.Channel,
			GuestName:     res.GuestName,
			Status:        status,
			PMSBookingID:  &pmsBookingID,
			PricingMethod: types.PricingMethodPMS,
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		return true, s.BookingRepo.Create(ctx, b)
	}

	existing.StartDate = start
	existing.EndDate = end
	existing.Revenue = revenue
	existing.Channel = res.Channel
	existing.GuestName = res.GuestName
	existing.Status = status
	return false, s.BookingRepo.Update(ctx, existing)
}

func reservationData(b *booking.Booking) pms.ReservationData {
	data := pms.ReservationData{
		StartDate: types.FormatDate(b.StartDate),
		EndDate:   types.FormatDate(b.EndDate),
		Status:    string(b.Status),
		GuestName: b.GuestName,
		Channel:   b.Channel,
	}
	if b.Revenue != nil {
		total := float64(*b.Revenue) / 100
		data.TotalPrice = &total
	}
	return data
}

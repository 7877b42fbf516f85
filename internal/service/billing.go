package service

import (
	"context"
	"fmt"

	"github.com/stayprice/stayprice/internal/domain/group"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/domain/usedlisting"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// TrialMaxProperties is the hard property cap while a subscription is in
// trial
const TrialMaxProperties = 10

// ChildUnitPrice is the flat monthly price of a child unit in minor
// currency units
const ChildUnitPrice = 399

// parentTiers is the marginal price ladder for parent units. Each tier
// prices units with index in [From, To] at Price minor units per month.
var parentTiers = []struct {
	From  int64
	To    int64
	Price int64
}{
	{1, 1, 1399},
	{2, 5, 1199},
	{6, 15, 899},
	{16, 30, 549},
	{31, 1<<62 - 1, 399},
}

// TieredParentTotal returns the monthly amount for q parent units under the
// marginal tier ladder
func TieredParentTotal(q int64) int64 {
	var total int64
	for _, tier := range parentTiers {
		if q < tier.From {
			break
		}
		upper := tier.To
		if q < upper {
			upper = q
		}
		total += (upper - tier.From + 1) * tier.Price
	}
	return total
}

// BillingService keeps the payment provider's subscription items in step
// with the tenant's property and group topology.
type BillingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) *BillingService {
	return &BillingService{ServiceParams: params}
}

// Quantities is the billable unit count derived from the tenant's topology
type Quantities struct {
	Parent int64
	Child  int64
}

// ComputeQuantities derives parent and child unit counts. Every group
// contributes one parent (its main property while still a member, else the
// first surviving member) and its other members as children; ungrouped
// properties are parents.
func ComputeQuantities(properties []*property.Property, groups []*group.Group) Quantities {
	grouped := make(map[string]bool)
	var q Quantities

	for _, g := range groups {
		if len(g.PropertyIDs) == 0 {
			continue
		}
		template := g.TemplatePropertyID()
		for _, id := range g.PropertyIDs {
			grouped[id] = true
			if id == template {
				q.Parent++
			} else {
				q.Child++
			}
		}
	}

	for _, p := range properties {
		if !grouped[p.ID] {
			q.Parent++
		}
	}
	return q
}

// quantitiesFor loads the tenant's topology and derives the unit counts
func (s *BillingService) quantitiesFor(ctx context.Context, t *tenant.Tenant) (Quantities, error) {
	properties, err := s.PropertyRepo.ListByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		return Quantities{}, err
	}
	groups, err := s.GroupRepo.ListByOwner(ctx, t.ID)
	if err != nil {
		return Quantities{}, err
	}
	return ComputeQuantities(properties, groups), nil
}

// Reconcile re-derives the billable quantities and updates the
// subscription. During trial the items are adjusted with no charge. On a
// billed cycle quantity increases are charged immediately through one-off
// invoice items covering the rest of the cycle; decreases simply apply from
// the next cycle.
//
// Callers treat reconciliation as best-effort: failures are logged and
// never roll back the originating mutation.
func (s *BillingService) Reconcile(ctx context.Context, t *tenant.Tenant) error {
	if t.SubscriptionID == nil || *t.SubscriptionID == "" {
		return nil
	}

	sub, err := s.Billing.GetSubscription(ctx, *t.SubscriptionID)
	if err != nil {
		return err
	}

	q, err := s.quantitiesFor(ctx, t)
	if err != nil {
		return err
	}

	if sub.IsTrialing() {
		return s.Billing.UpdateQuantities(ctx, sub, q.Parent, q.Child)
	}

	oldParent, oldChild := sub.ParentQuantity, sub.ChildQuantity
	if err := s.Billing.UpdateQuantities(ctx, sub, q.Parent, q.Child); err != nil {
		return err
	}

	if deltaParent := TieredParentTotal(q.Parent) - TieredParentTotal(oldParent); deltaParent > 0 {
		desc := fmt.Sprintf("Ajustement abonnement: %d → %d logements principaux", oldParent, q.Parent)
		if err := s.Billing.CreateInvoiceItem(ctx, sub.CustomerID, deltaParent, desc); err != nil {
			return err
		}
	}
	if deltaChild := (q.Child - oldChild) * ChildUnitPrice; deltaChild > 0 {
		desc := fmt.Sprintf("Ajustement abonnement: %d → %d logements groupés", oldChild, q.Child)
		if err := s.Billing.CreateInvoiceItem(ctx, sub.CustomerID, deltaChild, desc); err != nil {
			return err
		}
	}

	s.Logger.Infow("reconciled billing quantities",
		"user_id", t.ID,
		"parent_quantity", q.Parent,
		"child_quantity", q.Child)
	return nil
}

// ReconcileBestEffort runs Reconcile and downgrades any failure to a log
// line, preserving the originating mutation
func (s *BillingService) ReconcileBestEffort(ctx context.Context, t *tenant.Tenant) {
	if err := s.Reconcile(ctx, t); err != nil {
		s.Logger.Errorw("billing reconciliation failed",
			"user_id", t.ID, "error", err)
	}
}

// EnforceTrialCap rejects any mutation that would push the team above the
// trial property cap. additional is the number of properties about to be
// created.
func (s *BillingService) EnforceTrialCap(ctx context.Context, t *tenant.Tenant, additional int) error {
	if !t.SubscriptionStatus.IsTrialing() {
		return nil
	}

	count, err := s.PropertyRepo.CountByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		return err
	}
	if count+additional <= TrialMaxProperties {
		return nil
	}

	return ierr.NewError("trial property limit exceeded").
		WithHintf("Your trial is limited to %d properties; end the trial to add more", TrialMaxProperties).
		WithReportableDetails(map[string]any{
			"currentCount":    count,
			"maxAllowed":      TrialMaxProperties,
			"attemptedImport": additional,
			"requiresPayment": true,
		}).
		Mark(ierr.ErrLimitExceeded)
}

// EndTrialNow converts the trial into a billed subscription with the true
// quantities, invoicing the proration immediately, and registers the
// tenant's PMS listing ids against future trial reuse.
func (s *BillingService) EndTrialNow(ctx context.Context, t *tenant.Tenant) error {
	if t.SubscriptionID == nil || *t.SubscriptionID == "" {
		return ierr.NewError("no subscription to convert").
			WithHint("Complete checkout before ending the trial").
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := s.Billing.GetSubscription(ctx, *t.SubscriptionID)
	if err != nil {
		return err
	}
	if !sub.IsTrialing() {
		return ierr.NewError("subscription is not in trial").
			WithHint("The subscription is already billed").
			Mark(ierr.ErrInvalidOperation)
	}

	q, err := s.quantitiesFor(ctx, t)
	if err != nil {
		return err
	}

	if err := s.Billing.EndTrialNow(ctx, sub, q.Parent, q.Child); err != nil {
		return err
	}

	t.SubscriptionStatus = types.SubscriptionStatusActive
	t.PaymentFailed = false
	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}

	s.RegisterUsedListings(ctx, t)
	return nil
}

// RegisterUsedListings claims every PMS listing id owned by the tenant's
// team. Duplicates are swallowed by the store; failures only logged.
func (s *BillingService) RegisterUsedListings(ctx context.Context, t *tenant.Tenant) {
	properties, err := s.PropertyRepo.ListByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		s.Logger.Warnw("failed to list properties for listing registration",
			"user_id", t.ID, "error", err)
		return
	}

	for _, p := range properties {
		if !p.IsPMSLinked() {
			continue
		}
		err := s.UsedListingRepo.Register(ctx, &usedlisting.UsedListing{
			ListingID: *p.PMSID,
			UserID:    t.ID,
			Source:    string(*p.PMSType),
		})
		if err != nil {
			s.Logger.Warnw("failed to register used listing",
				"listing_id", *p.PMSID, "user_id", t.ID, "error", err)
		}
	}
}

package service

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/group"
	"github.com/stayprice/stayprice/internal/domain/property"
	ierr "github.com/stayprice/stayprice/internal/errors"
	stripeint "github.com/stayprice/stayprice/internal/integration/stripe"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewBillingService(testParams(&s.BaseServiceTestSuite))
}

func (s *BillingServiceSuite) TestTieredParentTotal() {
	testCases := []struct {
		quantity int64
		expected int64
	}{
		{0, 0},
		{1, 1399},
		{2, 2598},
		{5, 6195},
		{6, 7094},
		{7, 7993},
		{15, 15185},
		{16, 15734},
		{30, 23420},
		{31, 23819},
	}
	for _, tc := range testCases {
		s.Equal(tc.expected, TieredParentTotal(tc.quantity), "quantity %d", tc.quantity)
	}
}

func (s *BillingServiceSuite) TestComputeQuantities() {
	properties := []*property.Property{
		{ID: "prop_a"}, {ID: "prop_b"}, {ID: "prop_c"},
		{ID: "prop_d"}, {ID: "prop_e"},
	}
	groups := []*group.Group{
		{
			ID:             "grp_1",
			MainPropertyID: lo.ToPtr("prop_a"),
			PropertyIDs:    []string{"prop_a", "prop_b", "prop_c"},
		},
	}

	q := ComputeQuantities(properties, groups)
	s.Equal(int64(3), q.Parent) // group template + 2 ungrouped
	s.Equal(int64(2), q.Child)
	s.Equal(int64(len(properties)), q.Parent+q.Child)
}

func (s *BillingServiceSuite) TestComputeQuantitiesEmptyGroupIgnored() {
	q := ComputeQuantities([]*property.Property{{ID: "prop_a"}}, []*group.Group{{ID: "grp_1"}})
	s.Equal(int64(1), q.Parent)
	s.Equal(int64(0), q.Child)
}

func (s *BillingServiceSuite) TestReconcileChargesOnlyIncreases() {
	ctx := s.GetContext()
	t := activeTenant()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))
	for _, id := range []string{"prop_1", "prop_2", "prop_3", "prop_4", "prop_5", "prop_6"} {
		s.NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty(id, 10000)))
	}

	s.GetBillingProvider().Subscriptions["sub_test"] = &stripeint.Subscription{
		ID:             "sub_test",
		CustomerID:     "cus_test",
		Status:         "active",
		ParentQuantity: 1,
	}

	s.NoError(s.service.Reconcile(ctx, t))

	sub := s.GetBillingProvider().Subscriptions["sub_test"]
	s.Equal(int64(6), sub.ParentQuantity)
	s.Equal(int64(0), sub.ChildQuantity)

	// 1 -> 6 parents prorates the tier delta
	s.Require().Len(s.GetBillingProvider().InvoiceItems, 1)
	s.Equal(TieredParentTotal(6)-TieredParentTotal(1), s.GetBillingProvider().InvoiceItems[0].Amount)
}

func (s *BillingServiceSuite) TestReconcileDecreaseEmitsNoCharge() {
	ctx := s.GetContext()
	t := activeTenant()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))
	s.NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_1", 10000)))

	s.GetBillingProvider().Subscriptions["sub_test"] = &stripeint.Subscription{
		ID:             "sub_test",
		CustomerID:     "cus_test",
		Status:         "active",
		ParentQuantity: 4,
		ChildQuantity:  2,
	}

	s.NoError(s.service.Reconcile(ctx, t))

	sub := s.GetBillingProvider().Subscriptions["sub_test"]
	s.Equal(int64(1), sub.ParentQuantity)
	s.Equal(int64(0), sub.ChildQuantity)
	s.Empty(s.GetBillingProvider().InvoiceItems)
}

func (s *BillingServiceSuite) TestReconcileTrialAdjustsWithoutCharge() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))
	s.NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_1", 10000)))
	s.NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_2", 10000)))

	s.GetBillingProvider().Subscriptions["sub_test"] = &stripeint.Subscription{
		ID:         "sub_test",
		CustomerID: "cus_test",
		Status:     "trialing",
	}

	s.NoError(s.service.Reconcile(ctx, t))
	s.Equal(int64(2), s.GetBillingProvider().Subscriptions["sub_test"].ParentQuantity)
	s.Empty(s.GetBillingProvider().InvoiceItems)
}

func (s *BillingServiceSuite) TestReconcileSkipsWithoutSubscription() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionID = nil
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))

	s.NoError(s.service.Reconcile(ctx, t))
	s.Empty(s.GetBillingProvider().InvoiceItems)
}

func (s *BillingServiceSuite) TestEnforceTrialCap() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))

	for i := 0; i < TrialMaxProperties; i++ {
		s.NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROPERTY), 10000)))
	}

	err := s.service.EnforceTrialCap(ctx, t, 1)
	s.Error(err)
	s.True(ierr.IsLimitExceeded(err))
	s.Equal(ierr.ErrCodeLimitExceeded, ierr.CodeFromErr(err))

	details := reportedDetails(err)
	s.Require().NotNil(details)
	s.EqualValues(TrialMaxProperties, details["currentCount"])
	s.EqualValues(TrialMaxProperties, details["maxAllowed"])
	s.EqualValues(1, details["attemptedImport"])
	s.Equal(true, details["requiresPayment"])

	// Billed accounts are never capped
	t.SubscriptionStatus = types.SubscriptionStatusActive
	s.NoError(s.service.EnforceTrialCap(ctx, t, 100))
}

// reportedDetails unwraps the structured details attached with
// WithReportableDetails, the same payload the error envelope exposes
func reportedDetails(err error) map[string]any {
	for _, detail := range errors.GetAllSafeDetails(err) {
		for _, sd := range detail.SafeDetails {
			if !strings.HasPrefix(sd, "__json__:") {
				continue
			}
			var payload map[string]any
			if jsonErr := json.Unmarshal([]byte(strings.TrimPrefix(sd, "__json__:")), &payload); jsonErr == nil {
				return payload
			}
		}
	}
	return nil
}

func (s *BillingServiceSuite) TestEndTrialNow() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))

	prop := testProperty("prop_linked", 10000)
	prop.PMSID = lo.ToPtr("sm-42")
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)
	s.NoError(s.GetStores().PropertyRepo.Create(ctx, prop))

	s.GetBillingProvider().Subscriptions["sub_test"] = &stripeint.Subscription{
		ID:         "sub_test",
		CustomerID: "cus_test",
		Status:     "trialing",
	}

	s.NoError(s.service.EndTrialNow(ctx, t))
	s.Equal(types.SubscriptionStatusActive, t.SubscriptionStatus)
	s.Contains(s.GetBillingProvider().TrialsEnded, "sub_test")

	claimed, err := s.GetStores().UsedListingRepo.Exists(ctx, "sm-42")
	s.NoError(err)
	s.True(claimed)
}

func (s *BillingServiceSuite) TestEndTrialNowRejectsBilledSubscription() {
	ctx := s.GetContext()
	t := activeTenant()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))

	s.GetBillingProvider().Subscriptions["sub_test"] = &stripeint.Subscription{
		ID:     "sub_test",
		Status: "active",
	}

	err := s.service.EndTrialNow(ctx, t)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

package service

import (
	"github.com/samber/lo"

	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

// testParams assembles ServiceParams from the suite's in-memory stores and
// fakes
func testParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		Cache:             s.GetCache(),
		TenantRepo:        stores.TenantRepo,
		PropertyRepo:      stores.PropertyRepo,
		GroupRepo:         stores.GroupRepo,
		BookingRepo:       stores.BookingRepo,
		PriceOverrideRepo: stores.PriceOverrideRepo,
		IntegrationRepo:   stores.IntegrationRepo,
		PropertyLogRepo:   stores.PropertyLogRepo,
		SysCacheRepo:      stores.SysCacheRepo,
		UsedListingRepo:   stores.UsedListingRepo,
		PMSRegistry:       s.GetPMSRegistry(),
		Billing:           s.GetBillingProvider(),
		AIClient:          s.GetAIClient(),
	}
}

// activeTenant is the default authenticated account used by the suites
func activeTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:                 types.DefaultUserID,
		Email:              "owner@example.com",
		Role:               types.UserRoleAdmin,
		TeamID:             types.DefaultUserID,
		Timezone:           "Europe/Paris",
		SubscriptionStatus: types.SubscriptionStatusActive,
		SubscriptionID:     lo.ToPtr("sub_test"),
		CustomerID:         lo.ToPtr("cus_test"),
		PMSSyncEnabled:     true,
	}
}

func testProperty(id string, basePrice int64) *property.Property {
	return &property.Property{
		ID:           id,
		TeamID:       types.DefaultUserID,
		OwnerID:      types.DefaultUserID,
		Address:      "12 rue de la Paix",
		City:         "Paris",
		Country:      "FR",
		PropertyType: "appartement",
		Capacity:     4,
		Surface:      50,
		Strategy:     types.PricingStrategyBalanced,
		FloorPrice:   basePrice / 2,
		BasePrice:    basePrice,
		MinStay:      1,
		Status:       types.PropertyStatusActive,
	}
}

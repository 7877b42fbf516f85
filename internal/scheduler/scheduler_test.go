package scheduler

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type SchedulerSuite struct {
	testutil.BaseServiceTestSuite
	scheduler *Scheduler
}

func TestScheduler(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := s.serviceParams()
	pricing := service.NewPricingService(params, service.NewPMSSyncService(params))
	s.scheduler = New(params, pricing, s.GetConfig())
}

func (s *SchedulerSuite) serviceParams() service.ServiceParams {
	stores := s.GetStores()
	return service.ServiceParams{
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

func (s *SchedulerSuite) autoPricedTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:                 types.DefaultUserID,
		Email:              "owner@example.com",
		Role:               types.UserRoleAdmin,
		TeamID:             types.DefaultUserID,
		Timezone:           "Europe/Paris",
		SubscriptionStatus: types.SubscriptionStatusActive,
		SubscriptionID:     lo.ToPtr("sub_test"),
		CustomerID:         lo.ToPtr("cus_test"),
		AutoPricing: tenant.AutoPricing{
			Enabled:  true,
			Timezone: "Europe/Paris",
		},
	}
}

func (s *SchedulerSuite) schedulerProperty(id string) *property.Property {
	return &property.Property{
		ID:           id,
		TeamID:       types.DefaultUserID,
		OwnerID:      types.DefaultUserID,
		Address:      "12 rue de la Paix",
		City:         "Paris",
		Country:      "FR",
		PropertyType: "appartement",
		Capacity:     4,
		Strategy:     types.PricingStrategyBalanced,
		FloorPrice:   5000,
		BasePrice:    10000,
		MinStay:      1,
		Status:       types.PropertyStatusActive,
	}
}

// parisMidnightUTC is a UTC instant at which Paris local time is 00:xx
// (winter, UTC+1)
var parisMidnightUTC = time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC)

// parisNoonUTC is a UTC instant at Paris early afternoon
var parisNoonUTC = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func (s *SchedulerSuite) TestEligibleAtLocalMidnight() {
	t := s.autoPricedTenant()
	s.True(s.scheduler.Eligible(t, parisMidnightUTC))
	s.False(s.scheduler.Eligible(t, parisNoonUTC))
}

func (s *SchedulerSuite) TestEligibleOncePerLocalDay() {
	t := s.autoPricedTenant()
	t.AutoPricing.LastSuccessfulRun = lo.ToPtr(parisMidnightUTC)

	// Already priced this local day; later ticks in the same midnight
	// hour must not reprice again
	s.False(s.scheduler.Eligible(t, parisMidnightUTC.Add(10*time.Minute)))

	// Next local midnight is a fresh day
	s.True(s.scheduler.Eligible(t, parisMidnightUTC.AddDate(0, 0, 1)))
}

func (s *SchedulerSuite) TestEligibleDisabled() {
	t := s.autoPricedTenant()
	t.AutoPricing.Enabled = false
	s.False(s.scheduler.Eligible(t, parisMidnightUTC))
}

func (s *SchedulerSuite) TestEligibleRetriesAfterFailure() {
	t := s.autoPricedTenant()
	t.AutoPricing.FailedAttempts = 1
	t.AutoPricing.LastAttempt = lo.ToPtr(parisNoonUTC.Add(-2 * time.Hour))
	s.True(s.scheduler.Eligible(t, parisNoonUTC))

	// A recent attempt is not retried yet
	t.AutoPricing.LastAttempt = lo.ToPtr(parisNoonUTC.Add(-10 * time.Minute))
	s.False(s.scheduler.Eligible(t, parisNoonUTC))
}

func (s *SchedulerSuite) TestEligibleWithoutFailuresIgnoresLastAttempt() {
	t := s.autoPricedTenant()
	t.AutoPricing.LastAttempt = lo.ToPtr(parisNoonUTC.Add(-3 * time.Hour))
	s.False(s.scheduler.Eligible(t, parisNoonUTC))
}

func (s *SchedulerSuite) TestEligibleInvalidTimezoneFallsBackToUTC() {
	t := s.autoPricedTenant()
	t.AutoPricing.Timezone = "Mars/Olympus"
	t.Timezone = "Mars/Olympus"

	utcMidnight := time.Date(2026, 1, 15, 0, 30, 0, 0, time.UTC)
	s.True(s.scheduler.Eligible(t, utcMidnight))
	s.False(s.scheduler.Eligible(t, parisMidnightUTC))
}

func (s *SchedulerSuite) TestTickRecordsSuccessfulRun() {
	ctx := s.GetContext()
	t := s.autoPricedTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, s.schedulerProperty("prop_1")))

	s.scheduler.Tick(ctx, parisMidnightUTC)

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().NotNil(updated.AutoPricing.LastSuccessfulRun)
	s.Equal(parisMidnightUTC, *updated.AutoPricing.LastSuccessfulRun)
	s.Zero(updated.AutoPricing.FailedAttempts)

	today := types.TodayUTC()
	overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, "prop_1", today, today.AddDate(0, 0, types.CalendarDays-1))
	s.Require().NoError(err)
	s.Len(overrides, types.CalendarDays)
}

func (s *SchedulerSuite) TestTickIsIdempotentWithinMidnightHour() {
	ctx := s.GetContext()
	t := s.autoPricedTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, s.schedulerProperty("prop_1")))

	s.scheduler.Tick(ctx, parisMidnightUTC)
	s.scheduler.Tick(ctx, parisMidnightUTC.Add(10*time.Minute))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().NotNil(updated.AutoPricing.LastAttempt)
	s.Equal(parisMidnightUTC, *updated.AutoPricing.LastAttempt)
}

func (s *SchedulerSuite) TestTickSkipsIneligibleTenants() {
	ctx := s.GetContext()
	t := s.autoPricedTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, s.schedulerProperty("prop_1")))

	s.scheduler.Tick(ctx, parisNoonUTC)

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Nil(updated.AutoPricing.LastAttempt)
	s.Nil(updated.AutoPricing.LastSuccessfulRun)
}

func (s *SchedulerSuite) TestTickSkipsArchivedProperties() {
	ctx := s.GetContext()
	t := s.autoPricedTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	archived := s.schedulerProperty("prop_1")
	archived.Status = types.PropertyStatusArchived
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, archived))

	s.scheduler.Tick(ctx, parisMidnightUTC)

	today := types.TodayUTC()
	overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, "prop_1", today, today.AddDate(0, 0, types.CalendarDays-1))
	s.Require().NoError(err)
	s.Empty(overrides)
}

func (s *SchedulerSuite) TestTickMirrorsSyncedGroups() {
	ctx := s.GetContext()
	t := s.autoPricedTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	main := s.schedulerProperty("prop_main")
	member := s.schedulerProperty("prop_member")
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, main))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, member))

	params := s.serviceParams()
	tenants := service.NewTenantService(params)
	billing := service.NewBillingService(params)
	pricing := service.NewPricingService(params, service.NewPMSSyncService(params))
	groups := service.NewGroupService(params, tenants, billing, pricing)

	g, err := groups.Create(ctx, "Immeuble", true)
	s.Require().NoError(err)
	_, err = groups.AddProperty(ctx, g.ID, main.ID)
	s.Require().NoError(err)
	_, err = groups.AddProperty(ctx, g.ID, member.ID)
	s.Require().NoError(err)

	s.scheduler.Tick(ctx, parisMidnightUTC)

	today := types.TodayUTC()
	for _, id := range []string{main.ID, member.ID} {
		overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
			ctx, id, today, today.AddDate(0, 0, types.CalendarDays-1))
		s.Require().NoError(err)
		s.Len(overrides, types.CalendarDays, "property %s", id)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/integration"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type PropertyServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *PropertyService
}

func TestPropertyService(t *testing.T) {
	suite.Run(t, new(PropertyServiceSuite))
}

func (s *PropertyServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	tenants := NewTenantService(params)
	billing := NewBillingService(params)
	sync := NewPMSSyncService(params)
	pricing := NewPricingService(params, sync)
	s.service = NewPropertyService(params, tenants, billing, sync, pricing)

	s.Require().NoError(s.GetStores().TenantRepo.Create(s.GetContext(), activeTenant()))
}

// linkProperty persists a PMS-linked property with a working integration
func (s *PropertyServiceSuite) linkProperty(id, pmsID string) {
	ctx := s.GetContext()
	prop := testProperty(id, 10000)
	prop.PMSID = lo.ToPtr(pmsID)
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, prop))
	s.Require().NoError(s.GetStores().IntegrationRepo.Create(ctx, &integration.Integration{
		ID:          "intg_1",
		UserID:      types.DefaultUserID,
		Type:        types.PMSTypeSmoobu,
		Credentials: types.Metadata{"api_key": "k"},
		ConnectedAt: time.Now().UTC(),
	}))
}

func (s *PropertyServiceSuite) TestCreateAppliesDefaultsAndAudits() {
	ctx := s.GetContext()
	prop := testProperty("", 10000)
	prop.ID = ""
	prop.Status = ""
	prop.Strategy = ""

	created, err := s.service.Create(ctx, prop)
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal(types.PropertyStatusActive, created.Status)
	s.Equal(types.PricingStrategyBalanced, created.Strategy)

	logs, err := s.GetStores().PropertyLogRepo.ListByProperty(ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(types.LogActionCreate, logs[0].Action)
}

func (s *PropertyServiceSuite) TestCreateRejectsBrokenPriceLadder() {
	ctx := s.GetContext()
	prop := testProperty("", 10000)
	prop.ID = ""
	prop.FloorPrice = 20000 // above base

	_, err := s.service.Create(ctx, prop)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PropertyServiceSuite) TestCreateEnforcesTrialCap() {
	ctx := s.GetContext()
	t, err := s.GetStores().TenantRepo.GetByID(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, t))

	for i := 0; i < TrialMaxProperties; i++ {
		prop := testProperty("", 10000)
		prop.ID = ""
		_, err := s.service.Create(ctx, prop)
		s.Require().NoError(err)
	}

	over := testProperty("", 10000)
	over.ID = ""
	_, err = s.service.Create(ctx, over)
	s.Require().Error(err)
	s.True(ierr.IsLimitExceeded(err))
}

func (s *PropertyServiceSuite) TestUpdateStrategyPushesRemoteFirst() {
	ctx := s.GetContext()
	s.linkProperty("prop_1", "sm-1")

	_, err := s.service.UpdateStrategy(ctx, "prop_1", StrategyUpdate{
		BasePrice: lo.ToPtr(int64(12000)),
	})
	s.Require().NoError(err)

	updated, err := s.GetStores().PropertyRepo.GetByID(ctx, "prop_1")
	s.Require().NoError(err)
	s.Equal(int64(12000), updated.BasePrice)
	s.NotEmpty(s.GetPMSAdapter().SettingsPushes["sm-1"])
}

func (s *PropertyServiceSuite) TestUpdateStrategyAbortsWhenPushFails() {
	ctx := s.GetContext()
	s.linkProperty("prop_1", "sm-1")
	s.GetPMSAdapter().FailOn("UpdatePropertySettings", errors.New("smoobu down"))

	_, err := s.service.UpdateStrategy(ctx, "prop_1", StrategyUpdate{
		BasePrice: lo.ToPtr(int64(12000)),
	})
	s.Require().Error(err)

	// The local row is untouched after the failed remote push
	unchanged, repoErr := s.GetStores().PropertyRepo.GetByID(ctx, "prop_1")
	s.Require().NoError(repoErr)
	s.Equal(int64(10000), unchanged.BasePrice)
}

func (s *PropertyServiceSuite) TestUpdateRulesAbortsWhenPushFails() {
	ctx := s.GetContext()
	s.linkProperty("prop_1", "sm-1")
	s.GetPMSAdapter().FailOn("UpdatePropertySettings", errors.New("smoobu down"))

	_, err := s.service.UpdateRules(ctx, "prop_1", RulesUpdate{
		MinStay: lo.ToPtr(3),
	})
	s.Require().Error(err)

	unchanged, repoErr := s.GetStores().PropertyRepo.GetByID(ctx, "prop_1")
	s.Require().NoError(repoErr)
	s.Equal(1, unchanged.MinStay)
}

func (s *PropertyServiceSuite) TestUpdateStatusRequiresRole() {
	ctx := s.GetContext()
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_1", 10000)))

	t, err := s.GetStores().TenantRepo.GetByID(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	t.Role = types.UserRoleMember
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, t))

	_, err = s.service.UpdateStatus(ctx, "prop_1", types.PropertyStatusArchived)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *PropertyServiceSuite) TestUpdateStatusRejectsNoopTransition() {
	ctx := s.GetContext()
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_1", 10000)))

	_, err := s.service.UpdateStatus(ctx, "prop_1", types.PropertyStatusActive)
	s.Require().Error(err)
}

func (s *PropertyServiceSuite) TestSetManualOverrideValidatesLadder() {
	ctx := s.GetContext()
	prop := testProperty("prop_1", 10000)
	prop.CeilingPrice = lo.ToPtr(int64(20000))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, prop))

	date := types.TodayUTC().AddDate(0, 0, 3)

	_, err := s.service.SetManualOverride(ctx, "prop_1", date, 1000, false, "")
	s.Require().Error(err) // below floor
	s.True(ierr.IsValidation(err))

	_, err = s.service.SetManualOverride(ctx, "prop_1", date, 30000, false, "")
	s.Require().Error(err) // above ceiling

	override, err := s.service.SetManualOverride(ctx, "prop_1", date, 15000, true, "Festival")
	s.Require().NoError(err)
	s.True(override.IsLocked)
	s.Equal(int64(15000), override.Price)
}

func (s *PropertyServiceSuite) TestDeleteRemovesFromGroup() {
	ctx := s.GetContext()
	params := testParams(&s.BaseServiceTestSuite)
	tenants := NewTenantService(params)
	billing := NewBillingService(params)
	pricing := NewPricingService(params, NewPMSSyncService(params))
	groups := NewGroupService(params, tenants, billing, pricing)

	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, testProperty("prop_1", 10000)))
	g, err := groups.Create(ctx, "Groupe", false)
	s.Require().NoError(err)
	_, err = groups.AddProperty(ctx, g.ID, "prop_1")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(ctx, "prop_1"))

	after, err := s.GetStores().GroupRepo.GetByID(ctx, g.ID)
	s.Require().NoError(err)
	s.NotNil(after)
	s.Empty(after.PropertyIDs)
}

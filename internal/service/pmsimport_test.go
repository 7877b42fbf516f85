package service

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/usedlisting"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type PMSImportServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *PMSImportService
}

func TestPMSImportService(t *testing.T) {
	suite.Run(t, new(PMSImportServiceSuite))
}

func (s *PMSImportServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	tenants := NewTenantService(params)
	s.service = NewPMSImportService(params, tenants, NewBillingService(params), NewPMSSyncService(params))

	s.Require().NoError(s.GetStores().TenantRepo.Create(s.GetContext(), activeTenant()))
}

func listing(pmsID, name string) pms.NormalizedProperty {
	return pms.NormalizedProperty{
		PMSID:    pmsID,
		Name:     name,
		Capacity: 4,
		Location: &pms.Location{
			Address:   "12 rue de Rivoli",
			City:      "Paris",
			Country:   "FR",
			Latitude:  lo.ToPtr(48.8566),
			Longitude: lo.ToPtr(2.3522),
		},
	}
}

func (s *PMSImportServiceSuite) TestConnectStoresIntegration() {
	ctx := s.GetContext()
	integ, err := s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)
	s.NotEmpty(integ.ID)
	s.Equal(types.PMSTypeSmoobu, integ.Type)
	s.Contains(s.GetPMSAdapter().Calls, "TestConnection")

	list, err := s.service.ListIntegrations(ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PMSImportServiceSuite) TestConnectRejectsBadCredentials() {
	ctx := s.GetContext()
	s.GetPMSAdapter().FailOn("TestConnection", errors.New("401 unauthorized"))

	_, err := s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "wrong"})
	s.Require().Error(err)

	list, err := s.service.ListIntegrations(ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *PMSImportServiceSuite) TestConnectRejectsUnknownType() {
	ctx := s.GetContext()
	_, err := s.service.Connect(ctx, types.PMSType("hostaway"), types.Metadata{})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PMSImportServiceSuite) TestImportRequiresConnection() {
	ctx := s.GetContext()
	_, err := s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PMSImportServiceSuite) TestImportCreatesAndSkips() {
	ctx := s.GetContext()
	_, err := s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)

	s.GetPMSAdapter().Properties = []pms.NormalizedProperty{
		listing("sm-1", "Studio Marais"),
		listing("sm-2", "Loft Bastille"),
	}

	outcome, err := s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().NoError(err)
	s.Equal(2, outcome.Imported)
	s.Equal(0, outcome.Skipped)

	// Second run finds both listings already imported
	outcome, err = s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().NoError(err)
	s.Equal(0, outcome.Imported)
	s.Equal(2, outcome.Skipped)

	properties, err := s.GetStores().PropertyRepo.ListByTeam(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	s.Len(properties, 2)
	for _, p := range properties {
		s.Equal("Paris", p.City)
		s.Require().NotNil(p.PMSType)
		s.Equal(types.PMSTypeSmoobu, *p.PMSType)
	}
}

func (s *PMSImportServiceSuite) TestImportRegistersListingsForPaidAccounts() {
	ctx := s.GetContext()
	_, err := s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)
	s.GetPMSAdapter().Properties = []pms.NormalizedProperty{listing("sm-1", "Studio Marais")}

	_, err = s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().NoError(err)

	claimed, err := s.GetStores().UsedListingRepo.Exists(ctx, "sm-1")
	s.Require().NoError(err)
	s.True(claimed)
}

func (s *PMSImportServiceSuite) TestImportRejectsRecycledListingDuringTrial() {
	ctx := s.GetContext()
	t, err := s.GetStores().TenantRepo.GetByID(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, t))

	s.Require().NoError(s.GetStores().UsedListingRepo.Register(ctx, &usedlisting.UsedListing{
		ListingID: "sm-1",
		UserID:    "usr_other",
		Source:    "smoobu",
	}))

	_, err = s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)
	s.GetPMSAdapter().Properties = []pms.NormalizedProperty{listing("sm-1", "Studio Marais")}

	_, err = s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *PMSImportServiceSuite) TestImportEnforcesTrialCapOnBatch() {
	ctx := s.GetContext()
	t, err := s.GetStores().TenantRepo.GetByID(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, t))

	_, err = s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)

	listings := make([]pms.NormalizedProperty, 0, TrialMaxProperties+1)
	for i := 0; i <= TrialMaxProperties; i++ {
		listings = append(listings, listing(types.GenerateUUIDWithPrefix("sm"), "Studio"))
	}
	s.GetPMSAdapter().Properties = listings

	_, err = s.service.ImportProperties(ctx, types.PMSTypeSmoobu)
	s.Require().Error(err)
	s.True(ierr.IsLimitExceeded(err))

	// Nothing from the over-cap batch lands
	properties, err := s.GetStores().PropertyRepo.ListByTeam(ctx, types.DefaultUserID)
	s.Require().NoError(err)
	s.Empty(properties)
}

func (s *PMSImportServiceSuite) TestDisconnectRemovesIntegration() {
	ctx := s.GetContext()
	_, err := s.service.Connect(ctx, types.PMSTypeSmoobu, types.Metadata{"api_key": "k"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Disconnect(ctx, types.PMSTypeSmoobu))

	list, err := s.service.ListIntegrations(ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

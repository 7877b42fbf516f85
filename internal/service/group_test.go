package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type GroupServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *GroupService
}

func TestGroupService(t *testing.T) {
	suite.Run(t, new(GroupServiceSuite))
}

func (s *GroupServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	tenants := NewTenantService(params)
	billing := NewBillingService(params)
	pricing := NewPricingService(params, NewPMSSyncService(params))
	s.service = NewGroupService(params, tenants, billing, pricing)

	s.Require().NoError(s.GetStores().TenantRepo.Create(s.GetContext(), activeTenant()))
}

// placedProperty returns a property at the given coordinates; everything
// else matches the group template
func (s *GroupServiceSuite) placedProperty(id string, lat, lon float64) string {
	prop := testProperty(id, 10000)
	prop.Latitude = lo.ToPtr(lat)
	prop.Longitude = lo.ToPtr(lon)
	s.Require().NoError(s.GetStores().PropertyRepo.Create(s.GetContext(), prop))
	return id
}

func (s *GroupServiceSuite) TestHaversine() {
	// Notre-Dame to Sacré-Coeur is roughly 3 km
	d := haversineMeters(48.8530, 2.3499, 48.8867, 2.3431)
	s.InDelta(3780, d, 200)

	s.Zero(haversineMeters(48.8530, 2.3499, 48.8530, 2.3499))
}

func (s *GroupServiceSuite) TestAddPropertyWithinGeofence() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", true)
	s.Require().NoError(err)

	first := s.placedProperty("prop_a", 48.8566, 2.3522)
	near := s.placedProperty("prop_b", 48.8605, 2.3522) // ~430 m north

	g, err = s.service.AddProperty(ctx, g.ID, first)
	s.Require().NoError(err)
	s.Require().NotNil(g.MainPropertyID)
	s.Equal(first, *g.MainPropertyID) // first member becomes main

	g, err = s.service.AddProperty(ctx, g.ID, near)
	s.Require().NoError(err)
	s.Len(g.PropertyIDs, 2)
}

func (s *GroupServiceSuite) TestAddPropertyOutsideGeofence() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", true)
	s.Require().NoError(err)

	_, err = s.service.AddProperty(ctx, g.ID, s.placedProperty("prop_a", 48.8566, 2.3522))
	s.Require().NoError(err)

	far := s.placedProperty("prop_far", 48.8800, 2.3522) // ~2.6 km north
	_, err = s.service.AddProperty(ctx, g.ID, far)
	s.Require().Error(err)
	s.True(ierr.IsGeoFencing(err))
	s.Equal(ierr.ErrCodeGeoFencing, ierr.CodeFromErr(err))
}

func (s *GroupServiceSuite) TestAddPropertySurfaceTolerance() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", false)
	s.Require().NoError(err)

	template := testProperty("prop_a", 10000)
	template.Surface = 50
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, template))
	_, err = s.service.AddProperty(ctx, g.ID, "prop_a")
	s.Require().NoError(err)

	// 58 m2 against a 50 m2 template is within the 20% band
	twin := testProperty("prop_twin", 10000)
	twin.Surface = 58
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, twin))
	_, err = s.service.AddProperty(ctx, g.ID, "prop_twin")
	s.NoError(err)

	// 70 m2 is 40% off and rejected
	big := testProperty("prop_big", 10000)
	big.Surface = 70
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, big))
	_, err = s.service.AddProperty(ctx, g.ID, "prop_big")
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *GroupServiceSuite) TestAddPropertyTemplateMismatch() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", false)
	s.Require().NoError(err)

	_, err = s.service.AddProperty(ctx, g.ID, s.placedProperty("prop_a", 48.8566, 2.3522))
	s.Require().NoError(err)

	bigger := testProperty("prop_big", 10000)
	bigger.Capacity = 8
	s.Require().NoError(s.GetStores().PropertyRepo.Create(ctx, bigger))

	_, err = s.service.AddProperty(ctx, g.ID, "prop_big")
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *GroupServiceSuite) TestAddPropertyAlreadyGrouped() {
	ctx := s.GetContext()
	g1, err := s.service.Create(ctx, "Groupe A", false)
	s.Require().NoError(err)
	g2, err := s.service.Create(ctx, "Groupe B", false)
	s.Require().NoError(err)

	id := s.placedProperty("prop_a", 48.8566, 2.3522)
	_, err = s.service.AddProperty(ctx, g1.ID, id)
	s.Require().NoError(err)

	_, err = s.service.AddProperty(ctx, g2.ID, id)
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// Re-adding to its own group is idempotent
	g1, err = s.service.AddProperty(ctx, g1.ID, id)
	s.Require().NoError(err)
	s.Len(g1.PropertyIDs, 1)
}

func (s *GroupServiceSuite) TestRemoveMainPromotesSurvivor() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", true)
	s.Require().NoError(err)

	first := s.placedProperty("prop_a", 48.8566, 2.3522)
	second := s.placedProperty("prop_b", 48.8580, 2.3522)
	_, err = s.service.AddProperty(ctx, g.ID, first)
	s.Require().NoError(err)
	_, err = s.service.AddProperty(ctx, g.ID, second)
	s.Require().NoError(err)

	g, err = s.service.RemoveProperty(ctx, g.ID, first)
	s.Require().NoError(err)
	s.Require().NotNil(g.MainPropertyID)
	s.Equal(second, *g.MainPropertyID)
	s.Len(g.PropertyIDs, 1)
}

func (s *GroupServiceSuite) TestSetMainPropertyRequiresMembership() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", true)
	s.Require().NoError(err)

	member := s.placedProperty("prop_a", 48.8566, 2.3522)
	outsider := s.placedProperty("prop_x", 48.8566, 2.3530)
	_, err = s.service.AddProperty(ctx, g.ID, member)
	s.Require().NoError(err)

	_, err = s.service.SetMainProperty(ctx, g.ID, outsider)
	s.Require().Error(err)
}

func (s *GroupServiceSuite) TestDeleteGroupKeepsProperties() {
	ctx := s.GetContext()
	g, err := s.service.Create(ctx, "Immeuble Marais", false)
	s.Require().NoError(err)
	id := s.placedProperty("prop_a", 48.8566, 2.3522)
	_, err = s.service.AddProperty(ctx, g.ID, id)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(ctx, g.ID))

	gone, err := s.GetStores().GroupRepo.GetByID(ctx, g.ID)
	s.NoError(err)
	s.Nil(gone)

	kept, err := s.GetStores().PropertyRepo.GetByID(ctx, id)
	s.NoError(err)
	s.NotNil(kept)
	s.Equal(types.PropertyStatusActive, kept.Status)
}

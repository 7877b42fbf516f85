package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/booking"
	"github.com/stayprice/stayprice/internal/domain/integration"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type BookingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *BookingService
}

func TestBookingService(t *testing.T) {
	suite.Run(t, new(BookingServiceSuite))
}

func (s *BookingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	s.service = NewBookingService(params, NewTenantService(params), NewPMSSyncService(params))

	t := activeTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(s.GetContext(), t))
	s.Require().NoError(s.GetStores().PropertyRepo.Create(s.GetContext(), testProperty("prop_1", 10000)))
	s.GetStores().BookingRepo.(*testutil.InMemoryBookingStore).LinkPropertyTeam("prop_1", t.EffectiveTeamID())
}

func (s *BookingServiceSuite) newBooking(startOffset, nights int) *booking.Booking {
	start := types.TodayUTC().AddDate(0, 0, startOffset)
	return &booking.Booking{
		PropertyID:    "prop_1",
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, nights),
		PricePerNight: lo.ToPtr(int64(10000)),
		Channel:       "direct",
		GuestName:     lo.ToPtr("Marie Dupont"),
	}
}

func (s *BookingServiceSuite) TestCreateAppliesDefaultsAndRevenue() {
	ctx := s.GetContext()
	created, err := s.service.Create(ctx, s.newBooking(2, 3))
	s.Require().NoError(err)

	s.NotEmpty(created.ID)
	s.Equal(types.BookingStatusConfirmed, created.Status)
	s.Equal(types.PricingMethodManual, created.PricingMethod)
	s.Require().NotNil(created.Revenue)
	s.Equal(int64(30000), *created.Revenue) // 3 nights at 10000
}

func (s *BookingServiceSuite) TestCreateRejectsInvertedDates() {
	ctx := s.GetContext()
	b := s.newBooking(5, 2)
	b.StartDate, b.EndDate = b.EndDate, b.StartDate

	_, err := s.service.Create(ctx, b)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BookingServiceSuite) TestCreateMirrorsLinkedProperty() {
	ctx := s.GetContext()
	prop, err := s.GetStores().PropertyRepo.GetByID(ctx, "prop_1")
	s.Require().NoError(err)
	prop.PMSID = lo.ToPtr("sm-1")
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)
	s.Require().NoError(s.GetStores().PropertyRepo.Update(ctx, prop))
	s.Require().NoError(s.GetStores().IntegrationRepo.Create(ctx, &integration.Integration{
		ID:          "intg_1",
		UserID:      types.DefaultUserID,
		Type:        types.PMSTypeSmoobu,
		Credentials: types.Metadata{"api_key": "k"},
		ConnectedAt: time.Now().UTC(),
	}))

	created, err := s.service.Create(ctx, s.newBooking(2, 2))
	s.Require().NoError(err)
	s.Require().NotNil(created.PMSBookingID)
	s.NotEmpty(*created.PMSBookingID)
	s.Contains(s.GetPMSAdapter().Calls, "CreateReservation")
}

func (s *BookingServiceSuite) TestCreateSurvivesRemoteFailure() {
	ctx := s.GetContext()
	prop, err := s.GetStores().PropertyRepo.GetByID(ctx, "prop_1")
	s.Require().NoError(err)
	prop.PMSID = lo.ToPtr("sm-1")
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)
	s.Require().NoError(s.GetStores().PropertyRepo.Update(ctx, prop))
	s.Require().NoError(s.GetStores().IntegrationRepo.Create(ctx, &integration.Integration{
		ID:          "intg_1",
		UserID:      types.DefaultUserID,
		Type:        types.PMSTypeSmoobu,
		Credentials: types.Metadata{"api_key": "k"},
		ConnectedAt: time.Now().UTC(),
	}))
	s.GetPMSAdapter().FailOn("CreateReservation", errors.New("smoobu down"))

	// Reservations are best-effort: the local write still lands
	created, err := s.service.Create(ctx, s.newBooking(2, 2))
	s.Require().NoError(err)
	s.Nil(created.PMSBookingID)

	stored, err := s.GetStores().BookingRepo.GetByID(ctx, created.ID)
	s.Require().NoError(err)
	s.NotNil(stored)
}

func (s *BookingServiceSuite) TestUpdateRecomputesNothingImplicitly() {
	ctx := s.GetContext()
	created, err := s.service.Create(ctx, s.newBooking(2, 2))
	s.Require().NoError(err)

	updated, err := s.service.Update(ctx, created.ID, func(b *booking.Booking) {
		b.Status = types.BookingStatusCanceled
	})
	s.Require().NoError(err)
	s.Equal(types.BookingStatusCanceled, updated.Status)
}

func (s *BookingServiceSuite) TestDelete() {
	ctx := s.GetContext()
	created, err := s.service.Create(ctx, s.newBooking(2, 2))
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(ctx, created.ID))

	gone, err := s.GetStores().BookingRepo.GetByID(ctx, created.ID)
	s.NoError(err)
	s.Nil(gone)
}

func (s *BookingServiceSuite) TestStatsClampsOverlapAndSkipsCanceled() {
	ctx := s.GetContext()

	// Fully inside the window: 3 nights at 10000
	_, err := s.service.Create(ctx, s.newBooking(2, 3))
	s.Require().NoError(err)

	// Straddles the window end: only the nights inside count
	straddle := s.newBooking(28, 5)
	_, err = s.service.Create(ctx, straddle)
	s.Require().NoError(err)

	// Canceled bookings never count
	canceled := s.newBooking(10, 2)
	canceled.Status = types.BookingStatusCanceled
	_, err = s.service.Create(ctx, canceled)
	s.Require().NoError(err)

	from := types.TodayUTC()
	to := from.AddDate(0, 0, 30)
	stats, err := s.service.Stats(ctx, from, to)
	s.Require().NoError(err)

	s.Equal(2, stats.Bookings)
	s.Equal(3+2, stats.NightsBooked) // the straddler contributes days 28 and 29

	// Revenue is the booking total, not prorated to the window
	s.Equal(int64(30000+50000), stats.TotalRevenue)

	// One property over 30 nights
	s.InDelta(5.0/30.0, stats.OccupancyRate, 1e-9)
}

func (s *BookingServiceSuite) TestStatsRejectsInvertedWindow() {
	ctx := s.GetContext()
	from := types.TodayUTC()
	_, err := s.service.Stats(ctx, from, from)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

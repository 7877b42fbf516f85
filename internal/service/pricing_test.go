package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/domain/integration"
	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/domain/syscache"
	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type PricingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *PricingService
}

func TestPricingService(t *testing.T) {
	suite.Run(t, new(PricingServiceSuite))
}

func (s *PricingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	s.service = NewPricingService(params, NewPMSSyncService(params))
	// No AI response primed: the default path is the deterministic fallback
	s.GetAIClient().Err = errors.New("ai unavailable")
}

func (s *PricingServiceSuite) TestDeterministicFallbackFillsFullWindow() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(types.PricingSourceDeterministic, result.Source)
	s.Equal(types.CalendarDays, result.DaysWritten)
	s.Equal(0, result.LockedPreserved)

	today := types.TodayUTC()
	overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, prop.ID, today, today.AddDate(0, 0, types.CalendarDays-1))
	s.Require().NoError(err)
	s.Require().Len(overrides, types.CalendarDays)

	for i, o := range overrides {
		s.Equal(types.FormatDate(today.AddDate(0, 0, i)), o.DateKey())
		s.GreaterOrEqual(o.Price, prop.FloorPrice)

		// Charm pricing: whole units ending in 0, 5 or 9, never a round hundred
		units := o.Price / 100
		s.Zero(o.Price%100, "price %d is not whole units", o.Price)
		s.Contains([]int64{0, 5, 9}, units%10, "price %d has a non-charm ending", o.Price)
		s.NotZero(units%100, "price %d is a conspicuous round number", o.Price)
	}
}

func (s *PricingServiceSuite) TestLockedDaysPreserved() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	lockedDate := types.TodayUTC().AddDate(0, 0, 5)
	s.Require().NoError(s.GetStores().PriceOverrideRepo.Upsert(ctx, &priceoverride.PriceOverride{
		ID:         "ovr_locked",
		PropertyID: prop.ID,
		Date:       lockedDate,
		Price:      22000,
		IsLocked:   true,
		Reason:     "Prix bloqué manuellement",
	}))

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(1, result.LockedPreserved)
	s.Equal(types.CalendarDays-1, result.DaysWritten)

	kept, err := s.GetStores().PriceOverrideRepo.Get(ctx, prop.ID, lockedDate)
	s.Require().NoError(err)
	s.Require().NotNil(kept)
	s.Equal(int64(22000), kept.Price)
	s.True(kept.IsLocked)
}

func (s *PricingServiceSuite) TestFloorAndCeilingClamp() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)
	prop.FloorPrice = 9900
	prop.CeilingPrice = lo.ToPtr(int64(10100))

	_, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)

	today := types.TodayUTC()
	overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, prop.ID, today, today.AddDate(0, 0, types.CalendarDays-1))
	s.Require().NoError(err)
	for _, o := range overrides {
		s.GreaterOrEqual(o.Price, int64(9900))
		s.LessOrEqual(o.Price, int64(10100))
	}
}

func (s *PricingServiceSuite) TestDeterministicUsesMarketFeatures() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	// Fresh features for the whole window at competitor average 100
	features := make(map[string]map[string]float64, types.CalendarDays)
	today := types.TodayUTC()
	for i := 0; i < types.CalendarDays; i++ {
		features[types.FormatDate(today.AddDate(0, 0, i))] = map[string]float64{
			"competitor_avg_price": 100,
			"weather_score":        0.5,
			"event_impact":         0,
			"trend_score":          0.5,
		}
	}
	raw, err := json.Marshal(features)
	s.Require().NoError(err)
	s.Require().NoError(s.GetStores().SysCacheRepo.Upsert(ctx, &syscache.Entry{
		Key:       "market_features:paris:fr",
		Data:      raw,
		UpdatedAt: time.Now().UTC(),
	}))

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(types.PricingSourceDeterministic, result.Source)

	// The features path never consults the AI engine
	s.Zero(s.GetAIClient().Calls)
}

func (s *PricingServiceSuite) TestAICalendarAccepted() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	today := types.TodayUTC()
	var b strings.Builder
	b.WriteString(`{"audit_metadata": {"engine": "test"}, "calendar": [`)
	for i := 0; i < types.CalendarDays; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"date": %q, "final_suggested_price": 95, "reason": "Demande stable"}`,
			types.FormatDate(today.AddDate(0, 0, i)))
	}
	b.WriteString(`]}`)

	s.GetAIClient().Err = nil
	s.GetAIClient().Response = b.String()

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(types.PricingSourceAI, result.Source)
	s.Equal(types.CalendarDays, result.DaysWritten)

	first, err := s.GetStores().PriceOverrideRepo.Get(ctx, prop.ID, today)
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Equal(int64(9500), first.Price)
	s.Equal("Demande stable", first.Reason)
}

func (s *PricingServiceSuite) TestMalformedAIOutputFallsBack() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	s.GetAIClient().Err = nil
	s.GetAIClient().Response = "sorry, here is your calendar: lots of prose"

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(types.PricingSourceDeterministic, result.Source)
	s.Equal(1, s.GetAIClient().Calls)
}

func (s *PricingServiceSuite) TestShortAICalendarFallsBack() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false
	prop := testProperty("prop_1", 10000)

	s.GetAIClient().Err = nil
	s.GetAIClient().Response = fmt.Sprintf(
		`{"calendar": [{"date": %q, "final_suggested_price": 95, "reason": "ok"}]}`,
		types.FormatDate(types.TodayUTC()))

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Equal(types.PricingSourceDeterministic, result.Source)
}

func (s *PricingServiceSuite) TestRatesPushedBeforeLocalWrite() {
	ctx := s.GetContext()
	t := activeTenant()
	prop := testProperty("prop_1", 10000)
	prop.PMSID = lo.ToPtr("sm-1")
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)

	s.Require().NoError(s.GetStores().IntegrationRepo.Create(ctx, &integration.Integration{
		ID:          "intg_1",
		UserID:      t.ID,
		Type:        types.PMSTypeSmoobu,
		Credentials: types.Metadata{"api_key": "k"},
		ConnectedAt: time.Now().UTC(),
	}))

	result, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().NoError(err)
	s.Len(s.GetPMSAdapter().RatePushes["sm-1"], result.DaysWritten)
}

func (s *PricingServiceSuite) TestRemotePushFailureAbortsLocalWrite() {
	ctx := s.GetContext()
	t := activeTenant()
	prop := testProperty("prop_1", 10000)
	prop.PMSID = lo.ToPtr("sm-1")
	prop.PMSType = lo.ToPtr(types.PMSTypeSmoobu)

	s.Require().NoError(s.GetStores().IntegrationRepo.Create(ctx, &integration.Integration{
		ID:          "intg_1",
		UserID:      t.ID,
		Type:        types.PMSTypeSmoobu,
		Credentials: types.Metadata{"api_key": "k"},
		ConnectedAt: time.Now().UTC(),
	}))
	s.GetPMSAdapter().FailOn("UpdateBatchRates", errors.New("smoobu 500"))

	_, err := s.service.RunOrchestrator(ctx, t, prop)
	s.Require().Error(err)

	today := types.TodayUTC()
	overrides, listErr := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, prop.ID, today, today.AddDate(0, 0, types.CalendarDays-1))
	s.NoError(listErr)
	s.Empty(overrides)
}

func (s *PricingServiceSuite) TestMirrorCalendarReclampsToTarget() {
	ctx := s.GetContext()
	t := activeTenant()
	t.PMSSyncEnabled = false

	source := testProperty("prop_src", 20000)
	target := testProperty("prop_dst", 10000)
	target.CeilingPrice = lo.ToPtr(int64(15000))

	_, err := s.service.RunOrchestrator(ctx, t, source)
	s.Require().NoError(err)
	s.Require().NoError(s.service.MirrorCalendar(ctx, t, source, target))

	today := types.TodayUTC()
	overrides, err := s.GetStores().PriceOverrideRepo.ListByPropertyRange(
		ctx, target.ID, today, today.AddDate(0, 0, types.CalendarDays-1))
	s.Require().NoError(err)
	s.Require().NotEmpty(overrides)
	for _, o := range overrides {
		s.LessOrEqual(o.Price, int64(15000))
		s.GreaterOrEqual(o.Price, target.FloorPrice)
	}
}

func (s *PricingServiceSuite) TestCharmPrice() {
	testCases := []struct {
		in       int64
		expected int64
	}{
		{9500, 9500},   // 95 keeps its charm ending
		{9100, 9000},   // 91 -> 90
		{9300, 9500},   // 93 -> 95
		{9700, 9900},   // 97 -> 99
		{10000, 9900},  // round hundred avoided
		{20000, 19900}, // round hundred avoided
		{9949, 9900},   // rounds to units first
	}
	for _, tc := range testCases {
		s.Equal(tc.expected, charmPrice(tc.in), "input %d", tc.in)
	}
}

func (s *PricingServiceSuite) TestCapSwingStaysWithinBound() {
	// prev=10200: band is [5100, 15300]. Naive re-charming of the capped
	// 153 units would land on 155 and leave the band.
	capped := capSwing(20000, 10200)
	s.LessOrEqual(capped, int64(15300))
	s.Equal(int64(15000), capped)

	floored := capSwing(1000, 10200)
	s.GreaterOrEqual(floored, int64(5100))
	s.Equal(int64(5500), floored)

	// In-band prices pass through untouched
	s.Equal(int64(12000), capSwing(12000, 10200))

	// The capped value still carries a charm ending
	units := capped / 100
	s.Contains([]int64{0, 5, 9}, units%10)
	s.NotZero(units % 100)
}

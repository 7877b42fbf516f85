package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/propertylog"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxDailySwing caps day-over-day price movement unless a demand spike
// justifies it
const maxDailySwing = 0.5

// PricingService builds and applies the rolling 180-day price calendar.
// Deterministic pricing from persisted market features is preferred; the AI
// engine covers cities without features and the deterministic engine is the
// fallback when the AI output is unusable.
type PricingService struct {
	ServiceParams
	sync *PMSSyncService
}

func NewPricingService(params ServiceParams, sync *PMSSyncService) *PricingService {
	return &PricingService{ServiceParams: params, sync: sync}
}

// CalendarDay is one produced day before clamping
type CalendarDay struct {
	Date   time.Time
	Price  int64 // minor units
	Reason string
}

// CalendarResult reports what a run wrote
type CalendarResult struct {
	Source          types.PricingSource `json:"source"`
	DaysWritten     int                 `json:"days_written"`
	LockedPreserved int                 `json:"locked_preserved"`
}

// RunOrchestrator generates a calendar for the property and applies it:
// remote push first when the property is PMS-linked and sync is enabled,
// then the local batch upsert, then the audit row.
func (s *PricingService) RunOrchestrator(ctx context.Context, t *tenant.Tenant, prop *property.Property) (*CalendarResult, error) {
	today := types.TodayUTC()

	days, source, err := s.generateCalendar(ctx, prop, today)
	if err != nil {
		return nil, err
	}

	return s.applyCalendar(ctx, t, prop, days, source)
}

// generateCalendar runs the strategy ladder: deterministic when market
// features cover the window, else AI, falling back to deterministic when
// the AI output is malformed.
func (s *PricingService) generateCalendar(ctx context.Context, prop *property.Property, today time.Time) ([]CalendarDay, types.PricingSource, error) {
	features := s.loadMarketFeatures(ctx, prop.City, prop.Country)

	if features != nil {
		days, err := s.deterministicCalendar(prop, today, features)
		if err == nil && len(days) == types.CalendarDays {
			return days, types.PricingSourceDeterministic, nil
		}
		s.Logger.Warnw("deterministic pricing with features failed, trying ai",
			"property_id", prop.ID, "error", err)
	}

	days, err := s.aiCalendar(ctx, prop, today)
	if err == nil {
		return days, types.PricingSourceAI, nil
	}
	s.Logger.Warnw("ai pricing failed, falling back to deterministic",
		"property_id", prop.ID, "error", err)

	days, detErr := s.deterministicCalendar(prop, today, features)
	if detErr != nil {
		return nil, "", ierr.NewError("all pricing engines failed").
			WithHint("Neither the AI engine nor the deterministic engine produced a calendar").
			WithReportableDetails(map[string]any{
				"ai_error":            err.Error(),
				"deterministic_error": detErr.Error(),
			}).
			Mark(ierr.ErrSystem)
	}
	return days, types.PricingSourceDeterministic, nil
}

// applyCalendar clamps, honors locks, pushes remotely, persists and audits
func (s *PricingService) applyCalendar(ctx context.Context, t *tenant.Tenant, prop *property.Property, days []CalendarDay, source types.PricingSource) (*CalendarResult, error) {
	if len(days) == 0 {
		return nil, ierr.NewError("empty calendar").
			WithHint("The pricing engine produced no days").
			Mark(ierr.ErrSystem)
	}

	from := days[0].Date
	to := days[len(days)-1].Date
	existing, err := s.PriceOverrideRepo.ListByPropertyRange(ctx, prop.ID, from, to)
	if err != nil {
		return nil, err
	}
	lockedByDate := make(map[string]bool, len(existing))
	for _, o := range existing {
		if o.IsLocked {
			lockedByDate[o.DateKey()] = true
		}
	}

	var (
		writes []*priceoverride.PriceOverride
		locked int
	)
	for _, day := range days {
		key := types.FormatDate(day.Date)
		if lockedByDate[key] {
			locked++
			continue
		}

		price := day.Price
		if price < prop.FloorPrice {
			price = prop.FloorPrice
		}
		if prop.CeilingPrice != nil && price > *prop.CeilingPrice {
			price = *prop.CeilingPrice
		}

		writes = append(writes, &priceoverride.PriceOverride{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE_OVERRIDE),
			PropertyID: prop.ID,
			Date:       day.Date,
			Price:      price,
			IsLocked:   false,
			Reason:     day.Reason,
			BaseModel:  types.GetDefaultBaseModel(ctx),
		})
	}

	// Remote before local; a failed push leaves the calendar untouched
	if err := s.sync.PushRates(ctx, t, prop, writes); err != nil {
		return nil, err
	}

	if err := s.PriceOverrideRepo.UpsertBatch(ctx, prop.ID, writes); err != nil {
		return nil, err
	}

	action := types.LogActionDeterministicPricing
	if source == types.PricingSourceAI {
		action = types.LogActionAIPricing
	}
	s.appendLog(ctx, t, prop, action, map[string]any{
		"days_written":     len(writes),
		"locked_preserved": locked,
	})

	return &CalendarResult{
		Source:          source,
		DaysWritten:     len(writes),
		LockedPreserved: locked,
	}, nil
}

// MirrorCalendar copies the source property's current window onto a target
// property, re-clamping to the target's floor and ceiling and preserving
// the target's locked days. Used for synced groups.
func (s *PricingService) MirrorCalendar(ctx context.Context, t *tenant.Tenant, source, target *property.Property) error {
	today := types.TodayUTC()
	to := today.AddDate(0, 0, types.CalendarDays-1)

	overrides, err := s.PriceOverrideRepo.ListByPropertyRange(ctx, source.ID, today, to)
	if err != nil {
		return err
	}
	if len(overrides) == 0 {
		return nil
	}

	days := make([]CalendarDay, 0, len(overrides))
	for _, o := range overrides {
		days = append(days, CalendarDay{
			Date:   o.Date,
			Price:  o.Price,
			Reason: fmt.Sprintf("Aligné sur le logement principal (%s)", source.ID),
		})
	}

	_, err = s.applyCalendar(ctx, t, target, days, types.PricingSourceDeterministic)
	return err
}

// appendLog writes the audit row best-effort
func (s *PricingService) appendLog(ctx context.Context, t *tenant.Tenant, prop *property.Property, action string, changes map[string]any) {
	raw, err := json.Marshal(changes)
	if err != nil {
		s.Logger.Warnw("failed to encode audit changes", "error", err)
		return
	}
	err = s.PropertyLogRepo.Create(ctx, &propertylog.PropertyLog{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROPERTY_LOG),
		PropertyID: prop.ID,
		UserID:     t.ID,
		UserEmail:  t.Email,
		Action:     action,
		Changes:    raw,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		s.Logger.Warnw("failed to append property log",
			"property_id", prop.ID, "action", action, "error", err)
	}
}

// --- deterministic engine ---

// marketDay is one day of persisted market features for a city
type marketDay struct {
	CompetitorAvgPrice float64 `json:"competitor_avg_price"` // base units
	WeatherScore       float64 `json:"weather_score"`        // 0..1
	EventImpact        float64 `json:"event_impact"`         // 0..1
	TrendScore         float64 `json:"trend_score"`          // 0..1
}

// marketFeatures maps YYYY-MM-DD to that day's signals
type marketFeatures map[string]marketDay

// marketFeaturesKey is the persisted cache key for a city's market data
func marketFeaturesKey(city, country string) string {
	return fmt.Sprintf("market_features:%s:%s",
		strings.ToLower(strings.TrimSpace(city)),
		strings.ToLower(strings.TrimSpace(country)))
}

// loadMarketFeatures returns nil when no fresh features exist; the caller
// then routes to the AI engine
func (s *PricingService) loadMarketFeatures(ctx context.Context, city, country string) marketFeatures {
	if city == "" {
		return nil
	}

	entry, err := s.SysCacheRepo.Get(ctx, marketFeaturesKey(city, country))
	if err != nil || entry == nil {
		return nil
	}
	if entry.IsStale(time.Now().UTC()) {
		return nil
	}

	var features marketFeatures
	if err := json.Unmarshal(entry.Data, &features); err != nil {
		s.Logger.Warnw("malformed market features entry",
			"city", city, "country", country, "error", err)
		return nil
	}
	if len(features) == 0 {
		return nil
	}
	return features
}

// deterministicCalendar combines competitor and demand signals into one
// price per day. It always yields a full calendar: days without features
// are priced from the property's base price.
func (s *PricingService) deterministicCalendar(prop *property.Property, today time.Time, features marketFeatures) ([]CalendarDay, error) {
	if prop.BasePrice <= 0 {
		return nil, ierr.NewError("property has no base price").
			WithHint("Set a base price before generating a calendar").
			Mark(ierr.ErrValidation)
	}

	multiplier := prop.Strategy.Multiplier()
	days := make([]CalendarDay, 0, types.CalendarDays)
	var prev int64

	for i := 0; i < types.CalendarDays; i++ {
		date := today.AddDate(0, 0, i)
		key := types.FormatDate(date)

		raw := float64(prop.BasePrice)
		reason := "Prix de base ajusté selon la stratégie"
		spike := false

		if day, ok := features[key]; ok && day.CompetitorAvgPrice > 0 {
			demand := 1 +
				0.2*(day.WeatherScore-0.5) +
				0.3*day.EventImpact +
				0.1*(day.TrendScore-0.5)
			raw = day.CompetitorAvgPrice * 100 * demand
			spike = day.EventImpact > 0.5

			switch {
			case spike:
				reason = fmt.Sprintf("Événement local majeur, concurrence à %.0f€", day.CompetitorAvgPrice)
			case day.WeatherScore > 0.7:
				reason = fmt.Sprintf("Météo favorable, concurrence à %.0f€", day.CompetitorAvgPrice)
			default:
				reason = fmt.Sprintf("Aligné sur la concurrence (%.0f€)", day.CompetitorAvgPrice)
			}
		}

		raw *= multiplier
		if isWeekend(date) && prop.WeekendMarkupPercent != nil {
			raw *= 1 + *prop.WeekendMarkupPercent/100
		}

		if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
			s.Logger.Warnw("dropping invalid computed price",
				"property_id", prop.ID, "date", key, "raw", raw)
			continue
		}

		price := charmPrice(int64(math.Round(raw)))
		if prev > 0 && !spike {
			price = capSwing(price, prev)
		}
		prev = price

		days = append(days, CalendarDay{Date: date, Price: price, Reason: reason})
	}

	if len(days) != types.CalendarDays {
		return nil, ierr.NewError("incomplete deterministic calendar").
			WithReportableDetails(map[string]any{"days": len(days)}).
			Mark(ierr.ErrSystem)
	}
	return days, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// capSwing bounds a day's price to ±50% of the previous day. Capped values
// are re-charmed towards the inside of the band so the ending never pushes
// a price back out of it.
func capSwing(price, prev int64) int64 {
	upper := prev + prev/2
	lower := prev - prev/2
	if price > upper {
		return charmAtMost(upper)
	}
	if price < lower {
		return charmAtLeast(lower)
	}
	return price
}

func charmEnding(units int64) bool {
	if units%100 == 0 {
		return false
	}
	switch units % 10 {
	case 0, 5, 9:
		return true
	}
	return false
}

// charmAtMost returns the largest charm price not exceeding bound
func charmAtMost(bound int64) int64 {
	units := bound / 100
	for units > 5 && !charmEnding(units) {
		units--
	}
	if units < 5 {
		units = 5
	}
	return units * 100
}

// charmAtLeast returns the smallest charm price at or above bound
func charmAtLeast(bound int64) int64 {
	units := (bound + 99) / 100
	if units < 5 {
		units = 5
	}
	for !charmEnding(units) {
		units++
	}
	return units * 100
}

// charmPrice rounds to whole currency units ending in 5, 9 or 0, avoiding
// conspicuously round hundreds
func charmPrice(cents int64) int64 {
	if cents <= 0 {
		return cents
	}

	units := (cents + 50) / 100
	switch units % 10 {
	case 1, 2:
		units -= units % 10
	case 3, 4, 6:
		units = units - units%10 + 5
	case 7, 8:
		units = units - units%10 + 9
	}
	if units%100 == 0 {
		units--
	}
	if units <= 0 {
		units = 5
	}
	return units * 100
}

// --- AI engine ---

type aiCalendarEntry struct {
	Date                string  `json:"date"`
	FinalSuggestedPrice float64 `json:"final_suggested_price"`
	Reason              string  `json:"reason"`
}

type aiCalendarResponse struct {
	AuditMetadata map[string]any    `json:"audit_metadata"`
	Calendar      []aiCalendarEntry `json:"calendar"`
}

// aiCalendar asks the model for the full window in one prompt and
// validates the result strictly: exactly 180 entries, dates ascending with
// no gaps, parseable prices.
func (s *PricingService) aiCalendar(ctx context.Context, prop *property.Property, today time.Time) ([]CalendarDay, error) {
	if s.AIClient == nil {
		return nil, ierr.NewError("ai pricing not configured").
			Mark(ierr.ErrSystem)
	}

	raw, err := s.AIClient.Complete(ctx, aiSystemPrompt, buildPricingPrompt(prop, today))
	if err != nil {
		return nil, err
	}

	var resp aiCalendarResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The pricing model returned malformed JSON").
			Mark(ierr.ErrRemoteProvider)
	}
	if len(resp.Calendar) != types.CalendarDays {
		return nil, ierr.NewError("ai calendar has wrong length").
			WithReportableDetails(map[string]any{
				"expected": types.CalendarDays,
				"got":      len(resp.Calendar),
			}).
			Mark(ierr.ErrRemoteProvider)
	}

	days := make([]CalendarDay, 0, types.CalendarDays)
	for i, entry := range resp.Calendar {
		expected := types.FormatDate(today.AddDate(0, 0, i))
		if entry.Date != expected {
			return nil, ierr.NewError("ai calendar dates out of order").
				WithReportableDetails(map[string]any{
					"index":    i,
					"expected": expected,
					"got":      entry.Date,
				}).
				Mark(ierr.ErrRemoteProvider)
		}
		if math.IsNaN(entry.FinalSuggestedPrice) || math.IsInf(entry.FinalSuggestedPrice, 0) || entry.FinalSuggestedPrice <= 0 {
			return nil, ierr.NewError("ai calendar has invalid price").
				WithReportableDetails(map[string]any{"date": entry.Date}).
				Mark(ierr.ErrRemoteProvider)
		}

		date, _ := types.ParseDate(entry.Date)
		reason := entry.Reason
		if reason == "" {
			reason = "Prix suggéré par le moteur IA"
		}
		days = append(days, CalendarDay{
			Date:   date,
			Price:  charmPrice(int64(math.Round(entry.FinalSuggestedPrice * 100))),
			Reason: reason,
		})
	}
	return days, nil
}

const aiSystemPrompt = `You are a revenue management engine for short-term rentals. ` +
	`Respond with a single JSON object and nothing else: no prose, no markdown fences.`

func buildPricingPrompt(prop *property.Property, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a %d-day nightly price calendar starting %s for this property.\n\n",
		types.CalendarDays, types.FormatDate(today))
	fmt.Fprintf(&b, "Property: %s, %s (%s), type %s, capacity %d, surface %.0f m2.\n",
		prop.Address, prop.City, prop.Country, prop.PropertyType, prop.Capacity, prop.Surface)
	if len(prop.Amenities) > 0 {
		fmt.Fprintf(&b, "Amenities: %s.\n", strings.Join(prop.Amenities, ", "))
	}

	fmt.Fprintf(&b, "\nConstraints:\n")
	fmt.Fprintf(&b, "- Strategy: %s\n", prop.Strategy)
	fmt.Fprintf(&b, "- Floor price: %.2f, base price: %.2f", float64(prop.FloorPrice)/100, float64(prop.BasePrice)/100)
	if prop.CeilingPrice != nil {
		fmt.Fprintf(&b, ", ceiling price: %.2f", float64(*prop.CeilingPrice)/100)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Minimum stay: %d nights\n", prop.MinStay)
	if prop.WeekendMarkupPercent != nil {
		fmt.Fprintf(&b, "- Weekend markup: %.0f%%\n", *prop.WeekendMarkupPercent)
	}
	if prop.WeeklyDiscountPercent != nil {
		fmt.Fprintf(&b, "- Weekly discount: %.0f%%\n", *prop.WeeklyDiscountPercent)
	}
	if prop.MonthlyDiscountPercent != nil {
		fmt.Fprintf(&b, "- Monthly discount: %.0f%%\n", *prop.MonthlyDiscountPercent)
	}

	fmt.Fprintf(&b, "\nRules: prices in whole currency units ending in 5, 9 or 0; avoid round numbers like 100; ")
	fmt.Fprintf(&b, "never move more than 50%% day over day unless a major local event justifies it; ")
	fmt.Fprintf(&b, "stay within floor and ceiling.\n\n")
	fmt.Fprintf(&b, `Respond with JSON: {"audit_metadata": {...}, "calendar": [{"date": "YYYY-MM-DD", "final_suggested_price": number, "reason": "short French explanation"}]} `)
	fmt.Fprintf(&b, "with exactly %d calendar entries, dates consecutive and ascending from %s.",
		types.CalendarDays, types.FormatDate(today))

	return b.String()
}

// extractJSON strips markdown fences some models wrap around JSON output
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

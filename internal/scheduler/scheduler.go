package scheduler

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/stayprice/stayprice/internal/config"
	"github.com/stayprice/stayprice/internal/domain/group"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/types"
)

// Scheduler drives the hourly auto-pricing tick. Each tick scans tenants,
// applies the eligibility predicate and reprices eligible tenants with
// bounded parallelism. A tenant failing mid-tick is retried on a later
// tick, never within the same hour.
type Scheduler struct {
	params  service.ServiceParams
	pricing *service.PricingService

	workers         int
	propertyTimeout time.Duration
	retryAfter      time.Duration

	logger *logger.Logger
	stop   chan struct{}
	done   chan struct{}
}

func New(params service.ServiceParams, pricing *service.PricingService, cfg *config.Configuration) *Scheduler {
	return &Scheduler{
		params:          params,
		pricing:         pricing,
		workers:         cfg.Scheduler.Workers,
		propertyTimeout: cfg.Scheduler.PropertyTimeout,
		retryAfter:      cfg.Scheduler.RetryAfter,
		logger:          params.Logger,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called. The first tick is aligned
// to the next wall-clock hour in UTC.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop shuts the loop down and waits for the in-flight tick to finish
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		now := time.Now().UTC()
		next := now.Truncate(time.Hour).Add(time.Hour)

		select {
		case <-s.stop:
			return
		case <-time.After(next.Sub(now)):
		}

		ctx := context.Background()
		s.Tick(ctx, time.Now().UTC())
	}
}

// Eligible applies the scheduling predicate: auto-pricing on, and either
// local midnight in the tenant's timezone or a failed run at least
// retryAfter old. A tenant already repriced on the current local day is
// skipped, so repeated ticks within the midnight hour stay idempotent.
func (s *Scheduler) Eligible(t *tenant.Tenant, now time.Time) bool {
	if !t.AutoPricing.Enabled {
		return false
	}

	loc, err := t.Location()
	if err != nil {
		s.logger.Warnw("tenant has invalid timezone, defaulting to UTC",
			"user_id", t.ID, "timezone", t.AutoPricing.Timezone)
		loc = time.UTC
	}
	if now.In(loc).Hour() == 0 && !sameLocalDay(t.AutoPricing.LastSuccessfulRun, now, loc) {
		return true
	}

	if t.AutoPricing.FailedAttempts > 0 && t.AutoPricing.LastAttempt != nil &&
		now.Sub(*t.AutoPricing.LastAttempt) >= s.retryAfter {
		return true
	}
	return false
}

func sameLocalDay(last *time.Time, now time.Time, loc *time.Location) bool {
	if last == nil {
		return false
	}
	l, n := last.In(loc), now.In(loc)
	return l.Year() == n.Year() && l.YearDay() == n.YearDay()
}

// Tick processes every eligible tenant with bounded parallelism
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	tenants, err := s.params.TenantRepo.ListAutoPricingEnabled(ctx)
	if err != nil {
		s.logger.Errorw("scheduler failed to list tenants", "error", err)
		return
	}

	eligible := make([]*tenant.Tenant, 0, len(tenants))
	for _, t := range tenants {
		if s.Eligible(t, now) {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return
	}
	s.logger.Infow("scheduler tick", "eligible_tenants", len(eligible))

	p := pool.New().WithMaxGoroutines(s.workers)
	for _, t := range eligible {
		t := t
		p.Go(func() {
			s.processTenant(ctx, t, now)
		})
	}
	p.Wait()
}

// processTenant reprices all of one tenant's properties and records the
// attempt outcome on the tenant's auto-pricing state
func (s *Scheduler) processTenant(ctx context.Context, t *tenant.Tenant, now time.Time) {
	failures := s.repriceTenant(ctx, t)

	t.AutoPricing.LastAttempt = &now
	if failures == 0 {
		t.AutoPricing.LastSuccessfulRun = &now
		t.AutoPricing.FailedAttempts = 0
	} else {
		t.AutoPricing.FailedAttempts++
	}

	if err := s.params.TenantRepo.Update(ctx, t); err != nil {
		s.logger.Errorw("failed to record scheduler attempt",
			"user_id", t.ID, "error", err)
	}

	s.logger.Infow("scheduler processed tenant",
		"user_id", t.ID,
		"failures", failures,
		"failed_attempts", t.AutoPricing.FailedAttempts)
}

// repriceTenant prices synced groups through their main property and the
// remaining properties individually, returning the failure count
func (s *Scheduler) repriceTenant(ctx context.Context, t *tenant.Tenant) int {
	properties, err := s.params.PropertyRepo.ListByTeam(ctx, t.EffectiveTeamID())
	if err != nil {
		s.logger.Errorw("scheduler failed to list properties",
			"user_id", t.ID, "error", err)
		return 1
	}
	groups, err := s.params.GroupRepo.ListByOwner(ctx, t.ID)
	if err != nil {
		s.logger.Errorw("scheduler failed to list groups",
			"user_id", t.ID, "error", err)
		return 1
	}

	byID := make(map[string]*property.Property, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
	}

	failures := 0
	inSyncedGroup := make(map[string]bool)

	for _, g := range groups {
		if !g.SyncPrices || g.MainPropertyID == nil {
			continue
		}
		for _, id := range g.PropertyIDs {
			inSyncedGroup[id] = true
		}
		failures += s.repriceGroup(ctx, t, g, byID)
	}

	for _, p := range properties {
		if inSyncedGroup[p.ID] || p.Status != types.PropertyStatusActive {
			continue
		}
		if err := s.repriceProperty(ctx, t, p); err != nil {
			failures++
		}
	}
	return failures
}

// repriceGroup prices the main property, then mirrors the result onto the
// other members with their own clamps and locks applied
func (s *Scheduler) repriceGroup(ctx context.Context, t *tenant.Tenant, g *group.Group, byID map[string]*property.Property) int {
	main := byID[*g.MainPropertyID]
	if main == nil {
		s.logger.Warnw("synced group main property missing",
			"group_id", g.ID, "main_property_id", *g.MainPropertyID)
		return 1
	}

	if err := s.repriceProperty(ctx, t, main); err != nil {
		return 1
	}

	failures := 0
	for _, id := range g.PropertyIDs {
		if id == main.ID {
			continue
		}
		member := byID[id]
		if member == nil || member.Status != types.PropertyStatusActive {
			continue
		}

		memberCtx, cancel := context.WithTimeout(ctx, s.propertyTimeout)
		err := s.pricing.MirrorCalendar(memberCtx, t, main, member)
		cancel()
		if err != nil {
			s.logger.Errorw("failed to mirror group calendar",
				"group_id", g.ID, "property_id", member.ID, "error", err)
			failures++
		}
	}
	return failures
}

// repriceProperty runs the orchestrator under the per-property timeout
func (s *Scheduler) repriceProperty(ctx context.Context, t *tenant.Tenant, p *property.Property) error {
	propCtx, cancel := context.WithTimeout(ctx, s.propertyTimeout)
	defer cancel()

	_, err := s.pricing.RunOrchestrator(propCtx, t, p)
	if err != nil {
		s.logger.Errorw("scheduled repricing failed",
			"user_id", t.ID, "property_id", p.ID, "error", err)
	}
	return err
}

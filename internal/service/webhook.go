package service

import (
	"context"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/stayprice/stayprice/internal/cache"
	"github.com/stayprice/stayprice/internal/domain/syscache"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// webhookEventTTL is how long processed event ids are remembered for
// idempotency
const webhookEventTTL = 24 * time.Hour

// WebhookService consumes payment provider events and gates tenant access.
// Handlers are idempotent per event id and must return quickly; heavy side
// effects (listing registration) are best-effort.
type WebhookService struct {
	ServiceParams
	billing *BillingService
}

func NewWebhookService(params ServiceParams, billing *BillingService) *WebhookService {
	return &WebhookService{ServiceParams: params, billing: billing}
}

// HandleEvent dispatches one verified event. Replayed event ids are
// acknowledged without effect; the id set is held in the in-process cache
// and persisted in system_cache so replays are suppressed across restarts.
func (s *WebhookService) HandleEvent(ctx context.Context, event *stripeapi.Event) error {
	idempotencyKey := cache.GenerateKey(cache.PrefixWebhookEvent, event.ID)
	if _, seen := s.Cache.Get(ctx, idempotencyKey); seen {
		s.Logger.Infow("skipping replayed webhook event", "event_id", event.ID)
		return nil
	}
	if entry, err := s.SysCacheRepo.Get(ctx, idempotencyKey); err != nil {
		s.Logger.Warnw("failed to check webhook event store",
			"event_id", event.ID, "error", err)
	} else if entry != nil && !entry.IsStale(time.Now().UTC()) {
		s.Logger.Infow("skipping replayed webhook event", "event_id", event.ID)
		s.Cache.Set(ctx, idempotencyKey, true, webhookEventTTL)
		return nil
	}

	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = s.handleSessionCompleted(ctx, event)
	case "invoice.payment_failed":
		err = s.handlePaymentFailed(ctx, event)
	case "invoice.payment_succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "customer.subscription.updated":
		err = s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		s.Logger.Debugw("unhandled webhook event type", "type", event.Type)
		return nil
	}

	if err == nil {
		s.Cache.Set(ctx, idempotencyKey, true, webhookEventTTL)
		s.recordProcessedEvent(ctx, idempotencyKey, event)
	}
	return err
}

// recordProcessedEvent persists the event id; failures only cost replay
// protection across a restart, so they are logged and swallowed
func (s *WebhookService) recordProcessedEvent(ctx context.Context, key string, event *stripeapi.Event) {
	data, err := json.Marshal(map[string]string{"type": string(event.Type)})
	if err != nil {
		return
	}
	if err := s.SysCacheRepo.Upsert(ctx, &syscache.Entry{Key: key, Data: data}); err != nil {
		s.Logger.Warnw("failed to persist webhook event id",
			"event_id", event.ID, "error", err)
	}
}

// handleSessionCompleted activates the account after checkout: persist the
// provider ids, restore access, enable PMS sync and claim the tenant's
// listing ids
func (s *WebhookService) handleSessionCompleted(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed checkout session payload").
			Mark(ierr.ErrValidation)
	}

	userID := session.ClientReferenceID
	if userID == "" && session.Metadata != nil {
		userID = session.Metadata["user_id"]
	}
	t, err := s.TenantRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if t == nil {
		s.Logger.Warnw("checkout session for unknown tenant", "user_id", userID)
		return nil
	}

	if session.Customer != nil {
		t.CustomerID = &session.Customer.ID
	}
	status := types.SubscriptionStatusActive
	if session.Subscription != nil {
		t.SubscriptionID = &session.Subscription.ID
		if session.Subscription.Status != "" {
			status = types.SubscriptionStatus(session.Subscription.Status)
		}
	}
	t.SubscriptionStatus = status
	t.AccessDisabled = false
	t.Banned = false
	t.PaymentFailed = false
	t.PMSSyncEnabled = true
	t.PMSSyncStoppedReason = nil

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}

	s.billing.RegisterUsedListings(ctx, t)
	s.Logger.Infow("tenant activated after checkout", "user_id", t.ID, "status", status)
	return nil
}

// handlePaymentFailed marks the failure; outside trial it also suspends
// access and stops PMS sync
func (s *WebhookService) handlePaymentFailed(ctx context.Context, event *stripeapi.Event) error {
	t, err := s.tenantFromInvoiceEvent(ctx, event)
	if err != nil || t == nil {
		return err
	}

	t.PaymentFailed = true
	if !t.SubscriptionStatus.IsTrialing() {
		t.SubscriptionStatus = types.SubscriptionStatusPastDue
		t.AccessDisabled = true
		t.Banned = true
		t.PMSSyncEnabled = false
		reason := "payment_failed"
		t.PMSSyncStoppedReason = &reason
	}

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}
	s.Logger.Infow("recorded payment failure",
		"user_id", t.ID, "trialing", t.SubscriptionStatus.IsTrialing())
	return nil
}

// handlePaymentSucceeded restores a suspended account
func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, event *stripeapi.Event) error {
	t, err := s.tenantFromInvoiceEvent(ctx, event)
	if err != nil || t == nil {
		return err
	}

	t.SubscriptionStatus = types.SubscriptionStatusActive
	t.AccessDisabled = false
	t.Banned = false
	t.PaymentFailed = false

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}
	s.Logger.Infow("tenant restored after payment", "user_id", t.ID)
	return nil
}

// handleSubscriptionUpdated persists the provider's status verbatim
func (s *WebhookService) handleSubscriptionUpdated(ctx context.Context, event *stripeapi.Event) error {
	sub, t, err := s.tenantFromSubscriptionEvent(ctx, event)
	if err != nil || t == nil {
		return err
	}

	t.SubscriptionStatus = types.SubscriptionStatus(sub.Status)
	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}
	s.Logger.Infow("subscription status updated",
		"user_id", t.ID, "status", sub.Status)
	return nil
}

// handleSubscriptionDeleted cancels and suspends the account
func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event *stripeapi.Event) error {
	_, t, err := s.tenantFromSubscriptionEvent(ctx, event)
	if err != nil || t == nil {
		return err
	}

	t.SubscriptionStatus = types.SubscriptionStatusCanceled
	t.AccessDisabled = true
	t.Banned = true
	t.PMSSyncEnabled = false
	reason := "subscription_deleted"
	t.PMSSyncStoppedReason = &reason

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return err
	}
	s.Logger.Infow("subscription deleted, tenant suspended", "user_id", t.ID)
	return nil
}

func (s *WebhookService) tenantFromInvoiceEvent(ctx context.Context, event *stripeapi.Event) (*tenant.Tenant, error) {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}
	if invoice.Customer == nil {
		return nil, nil
	}

	t, err := s.TenantRepo.GetByCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		s.Logger.Warnw("invoice event for unknown customer", "customer_id", invoice.Customer.ID)
	}
	return t, nil
}

func (s *WebhookService) tenantFromSubscriptionEvent(ctx context.Context, event *stripeapi.Event) (*stripeapi.Subscription, *tenant.Tenant, error) {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}
	if sub.Customer == nil {
		return &sub, nil, nil
	}

	t, err := s.TenantRepo.GetByCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		return &sub, nil, err
	}
	if t == nil {
		s.Logger.Warnw("subscription event for unknown customer", "customer_id", sub.Customer.ID)
	}
	return &sub, t, nil
}

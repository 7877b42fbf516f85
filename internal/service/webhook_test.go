package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/stayprice/stayprice/internal/testutil"
	"github.com/stayprice/stayprice/internal/types"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *WebhookService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testParams(&s.BaseServiceTestSuite)
	s.service = NewWebhookService(params, NewBillingService(params))
}

func event(id, eventType, raw string) *stripeapi.Event {
	return &stripeapi.Event{
		ID:   id,
		Type: stripeapi.EventType(eventType),
		Data: &stripeapi.EventData{Raw: []byte(raw)},
	}
}

func (s *WebhookServiceSuite) TestCheckoutSessionActivatesTenant() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	t.SubscriptionID = nil
	t.CustomerID = nil
	t.PMSSyncEnabled = false
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := fmt.Sprintf(`{"client_reference_id": %q, "customer": "cus_9", "subscription": "sub_9"}`, t.ID)
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_1", "checkout.session.completed", raw)))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().NotNil(updated.CustomerID)
	s.Equal("cus_9", *updated.CustomerID)
	s.Require().NotNil(updated.SubscriptionID)
	s.Equal("sub_9", *updated.SubscriptionID)
	s.True(updated.PMSSyncEnabled)
	s.False(updated.AccessDisabled)
}

func (s *WebhookServiceSuite) TestPaymentFailedDuringTrialOnlyFlags() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"customer": "cus_test"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_1", "invoice.payment_failed", raw)))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.True(updated.PaymentFailed)
	s.Equal(types.SubscriptionStatusTrialing, updated.SubscriptionStatus)
	s.False(updated.Banned)
	s.True(updated.PMSSyncEnabled)
}

func (s *WebhookServiceSuite) TestPaymentFailedOutsideTrialSuspends() {
	ctx := s.GetContext()
	t := activeTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"customer": "cus_test"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_1", "invoice.payment_failed", raw)))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.True(updated.PaymentFailed)
	s.Equal(types.SubscriptionStatusPastDue, updated.SubscriptionStatus)
	s.True(updated.Banned)
	s.True(updated.AccessDisabled)
	s.False(updated.PMSSyncEnabled)
	s.Require().NotNil(updated.PMSSyncStoppedReason)
	s.Equal("payment_failed", *updated.PMSSyncStoppedReason)
}

func (s *WebhookServiceSuite) TestPaymentSucceededRestoresAccess() {
	ctx := s.GetContext()
	t := activeTenant()
	t.SubscriptionStatus = types.SubscriptionStatusPastDue
	t.AccessDisabled = true
	t.Banned = true
	t.PaymentFailed = true
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"customer": "cus_test"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_1", "invoice.payment_succeeded", raw)))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
	s.False(updated.AccessDisabled)
	s.False(updated.Banned)
	s.False(updated.PaymentFailed)
}

func (s *WebhookServiceSuite) TestSubscriptionDeletedSuspends() {
	ctx := s.GetContext()
	t := activeTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"id": "sub_test", "customer": "cus_test", "status": "canceled"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_1", "customer.subscription.deleted", raw)))

	updated, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, updated.SubscriptionStatus)
	s.True(updated.Banned)
	s.False(updated.PMSSyncEnabled)
}

func (s *WebhookServiceSuite) TestReplayedEventIsIgnored() {
	ctx := s.GetContext()
	t := activeTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"customer": "cus_test"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_once", "invoice.payment_failed", raw)))

	// Undo the effect out of band; a replay of the same event id must not
	// re-apply it
	restored, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	restored.PaymentFailed = false
	restored.SubscriptionStatus = types.SubscriptionStatusActive
	restored.Banned = false
	restored.AccessDisabled = false
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, restored))

	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_once", "invoice.payment_failed", raw)))

	after, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.False(after.PaymentFailed)
	s.Equal(types.SubscriptionStatusActive, after.SubscriptionStatus)
}

func (s *WebhookServiceSuite) TestReplayedEventSurvivesRestart() {
	ctx := s.GetContext()
	t := activeTenant()
	s.Require().NoError(s.GetStores().TenantRepo.Create(ctx, t))

	raw := `{"customer": "cus_test"}`
	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_once", "invoice.payment_failed", raw)))

	// A restart empties the in-process cache; the persisted event id set
	// must still suppress the replay
	s.GetCache().Flush(ctx)

	restored, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	restored.PaymentFailed = false
	restored.SubscriptionStatus = types.SubscriptionStatusActive
	restored.Banned = false
	restored.AccessDisabled = false
	s.Require().NoError(s.GetStores().TenantRepo.Update(ctx, restored))

	s.Require().NoError(s.service.HandleEvent(ctx, event("evt_once", "invoice.payment_failed", raw)))

	after, err := s.GetStores().TenantRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.False(after.PaymentFailed)
	s.Equal(types.SubscriptionStatusActive, after.SubscriptionStatus)
}

func (s *WebhookServiceSuite) TestUnknownCustomerIsAcknowledged() {
	ctx := s.GetContext()
	raw := `{"customer": "cus_stranger"}`
	s.NoError(s.service.HandleEvent(ctx, event("evt_1", "invoice.payment_failed", raw)))
}

func (s *WebhookServiceSuite) TestUnhandledEventTypeIsAcknowledged() {
	ctx := s.GetContext()
	s.NoError(s.service.HandleEvent(ctx, event("evt_1", "charge.refunded", `{}`)))
}

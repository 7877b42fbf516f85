package stripe

import (
	"context"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/stayprice/stayprice/internal/config"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
)

// Subscription mirrors the slice of remote subscription state that billing
// reconciliation needs: status, trial window and the two per-unit items.
type Subscription struct {
	ID         string
	CustomerID string
	Status     string
	TrialEnd   time.Time

	ParentItemID   string
	ParentQuantity int64
	ChildItemID    string
	ChildQuantity  int64
}

// IsTrialing reports whether the subscription is still in its trial window
func (s *Subscription) IsTrialing() bool {
	return s.Status == string(stripe.SubscriptionStatusTrialing)
}

// Provider is the payment-provider surface used by billing reconciliation.
// The concrete implementation talks to Stripe; tests substitute an in-memory
// fake.
type Provider interface {
	// GetSubscription fetches the subscription with its parent/child items
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// UpdateQuantities sets the parent and child item quantities without
	// proration; quantities apply from the next cycle
	UpdateQuantities(ctx context.Context, sub *Subscription, parentQty, childQty int64) error

	// CreateInvoiceItem emits a one-off invoice item on the customer, in
	// minor currency units, picked up by the next invoice
	CreateInvoiceItem(ctx context.Context, customerID string, amount int64, description string) error

	// EndTrialNow replaces the item quantities, ends the trial immediately
	// and forces a prorated, finalized invoice
	EndTrialNow(ctx context.Context, sub *Subscription, parentQty, childQty int64) error
}

// Client implements Provider against the Stripe API
type Client struct {
	api    *stripe.Client
	config config.StripeConfig
	logger *logger.Logger
}

// NewClient creates a Stripe client from the process configuration
func NewClient(cfg *config.Configuration, log *logger.Logger) *Client {
	return &Client{
		api:    stripe.NewClient(cfg.Stripe.SecretKey, nil),
		config: cfg.Stripe,
		logger: log,
	}
}

// GetSubscription fetches a subscription and maps its items onto the
// configured parent and child prices
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	stripeSub, err := c.api.V1Subscriptions.Retrieve(ctx, subscriptionID, &stripe.SubscriptionRetrieveParams{})
	if err != nil {
		return nil, ierr.NewError("failed to fetch subscription").
			WithHint("The subscription could not be retrieved from Stripe").
			WithReportableDetails(map[string]any{"subscription_id": subscriptionID}).
			Mark(ierr.ErrRemoteProvider)
	}

	sub := &Subscription{
		ID:     stripeSub.ID,
		Status: string(stripeSub.Status),
	}
	if stripeSub.Customer != nil {
		sub.CustomerID = stripeSub.Customer.ID
	}
	if stripeSub.TrialEnd > 0 {
		sub.TrialEnd = time.Unix(stripeSub.TrialEnd, 0).UTC()
	}

	if stripeSub.Items != nil {
		for _, item := range stripeSub.Items.Data {
			if item.Price == nil {
				continue
			}
			switch item.Price.ID {
			case c.config.PriceParentID:
				sub.ParentItemID = item.ID
				sub.ParentQuantity = item.Quantity
			case c.config.PriceChildID:
				sub.ChildItemID = item.ID
				sub.ChildQuantity = item.Quantity
			}
		}
	}
	return sub, nil
}

// itemParams builds the subscription item mutations needed to move the
// parent/child items to the target quantities
func (c *Client) itemParams(sub *Subscription, parentQty, childQty int64) []*stripe.SubscriptionUpdateItemParams {
	var items []*stripe.SubscriptionUpdateItemParams

	items = append(items, itemParam(sub.ParentItemID, c.config.PriceParentID, parentQty))
	items = append(items, itemParam(sub.ChildItemID, c.config.PriceChildID, childQty))

	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

func itemParam(itemID, priceID string, quantity int64) *stripe.SubscriptionUpdateItemParams {
	switch {
	case itemID != "" && quantity > 0:
		return &stripe.SubscriptionUpdateItemParams{
			ID:       stripe.String(itemID),
			Quantity: stripe.Int64(quantity),
		}
	case itemID != "" && quantity == 0:
		return &stripe.SubscriptionUpdateItemParams{
			ID:      stripe.String(itemID),
			Deleted: stripe.Bool(true),
		}
	case itemID == "" && quantity > 0:
		return &stripe.SubscriptionUpdateItemParams{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(quantity),
		}
	default:
		return nil
	}
}

// UpdateQuantities pushes the new item quantities with proration disabled
func (c *Client) UpdateQuantities(ctx context.Context, sub *Subscription, parentQty, childQty int64) error {
	items := c.itemParams(sub, parentQty, childQty)
	if len(items) == 0 {
		return nil
	}

	_, err := c.api.V1Subscriptions.Update(ctx, sub.ID, &stripe.SubscriptionUpdateParams{
		Items:             items,
		ProrationBehavior: stripe.String("none"),
	})
	if err != nil {
		return ierr.NewError("failed to update subscription quantities").
			WithHint("Stripe rejected the subscription item update").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"parent_quantity": parentQty,
				"child_quantity":  childQty,
			}).
			Mark(ierr.ErrRemoteProvider)
	}

	c.logger.Infow("updated subscription quantities",
		"subscription_id", sub.ID,
		"parent_quantity", parentQty,
		"child_quantity", childQty)
	return nil
}

// CreateInvoiceItem emits a one-off charge on the customer's next invoice
func (c *Client) CreateInvoiceItem(ctx context.Context, customerID string, amount int64, description string) error {
	_, err := c.api.V1InvoiceItems.Create(ctx, &stripe.InvoiceItemCreateParams{
		Customer:    stripe.String(customerID),
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(strings.ToLower(string(stripe.CurrencyEUR))),
		Description: stripe.String(description),
	})
	if err != nil {
		return ierr.NewError("failed to create invoice item").
			WithHint("Stripe rejected the one-off invoice item").
			WithReportableDetails(map[string]any{
				"customer_id": customerID,
				"amount":      amount,
			}).
			Mark(ierr.ErrRemoteProvider)
	}

	c.logger.Infow("created one-off invoice item",
		"customer_id", customerID,
		"amount", amount,
		"description", description)
	return nil
}

// EndTrialNow moves the subscription out of trial with the true quantities
// and lets Stripe invoice the proration immediately
func (c *Client) EndTrialNow(ctx context.Context, sub *Subscription, parentQty, childQty int64) error {
	_, err := c.api.V1Subscriptions.Update(ctx, sub.ID, &stripe.SubscriptionUpdateParams{
		Items:             c.itemParams(sub, parentQty, childQty),
		TrialEndNow:       stripe.Bool(true),
		ProrationBehavior: stripe.String("always_invoice"),
	})
	if err != nil {
		return ierr.NewError("failed to end trial").
			WithHint("Stripe rejected the trial end request").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrRemoteProvider)
	}

	c.logger.Infow("ended trial and billed current quantities",
		"subscription_id", sub.ID,
		"parent_quantity", parentQty,
		"child_quantity", childQty)
	return nil
}

// ParseWebhookEvent verifies the webhook signature and parses the event,
// ignoring API version mismatch
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.config.WebhookSecret, options)
	if err != nil {
		c.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

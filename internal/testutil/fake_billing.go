package testutil

import (
	"context"
	"sync"

	stripeint "github.com/stayprice/stayprice/internal/integration/stripe"
)

// InvoiceItemRecord is one invoice item emitted by the fake provider
type InvoiceItemRecord struct {
	CustomerID  string
	Amount      int64
	Description string
}

// FakeBillingProvider implements the payment provider with recorded state
type FakeBillingProvider struct {
	mu sync.Mutex

	// Subscriptions is keyed by subscription id and primed by tests
	Subscriptions map[string]*stripeint.Subscription

	InvoiceItems []InvoiceItemRecord
	TrialsEnded  []string

	// Err fails every call when set
	Err error
}

func NewFakeBillingProvider() *FakeBillingProvider {
	return &FakeBillingProvider{Subscriptions: make(map[string]*stripeint.Subscription)}
}

func (f *FakeBillingProvider) GetSubscription(ctx context.Context, subscriptionID string) (*stripeint.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		sub = &stripeint.Subscription{ID: subscriptionID, Status: "active"}
		f.Subscriptions[subscriptionID] = sub
	}
	cp := *sub
	return &cp, nil
}

func (f *FakeBillingProvider) UpdateQuantities(ctx context.Context, sub *stripeint.Subscription, parentQty, childQty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	stored, ok := f.Subscriptions[sub.ID]
	if !ok {
		stored = sub
		f.Subscriptions[sub.ID] = stored
	}
	stored.ParentQuantity = parentQty
	stored.ChildQuantity = childQty
	return nil
}

func (f *FakeBillingProvider) CreateInvoiceItem(ctx context.Context, customerID string, amount int64, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.InvoiceItems = append(f.InvoiceItems, InvoiceItemRecord{
		CustomerID:  customerID,
		Amount:      amount,
		Description: description,
	})
	return nil
}

func (f *FakeBillingProvider) EndTrialNow(ctx context.Context, sub *stripeint.Subscription, parentQty, childQty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	stored, ok := f.Subscriptions[sub.ID]
	if !ok {
		stored = sub
		f.Subscriptions[sub.ID] = stored
	}
	stored.Status = "active"
	stored.ParentQuantity = parentQty
	stored.ChildQuantity = childQty
	f.TrialsEnded = append(f.TrialsEnded, sub.ID)
	return nil
}

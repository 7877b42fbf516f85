package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/types"
)

type InMemoryPriceOverrideStore struct {
	mu sync.RWMutex
	// overrides is keyed property id -> date key
	overrides map[string]map[string]*priceoverride.PriceOverride
}

func NewInMemoryPriceOverrideStore() *InMemoryPriceOverrideStore {
	return &InMemoryPriceOverrideStore{
		overrides: make(map[string]map[string]*priceoverride.PriceOverride),
	}
}

func (s *InMemoryPriceOverrideStore) Get(ctx context.Context, propertyID string, date time.Time) (*priceoverride.PriceOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[propertyID][types.FormatDate(date)]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *InMemoryPriceOverrideStore) ListByPropertyRange(ctx context.Context, propertyID string, from, to time.Time) ([]*priceoverride.PriceOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*priceoverride.PriceOverride, 0)
	for _, o := range s.overrides[propertyID] {
		if !o.Date.Before(from) && !o.Date.After(to) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *InMemoryPriceOverrideStore) Upsert(ctx context.Context, override *priceoverride.PriceOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(override)
	return nil
}

func (s *InMemoryPriceOverrideStore) UpsertBatch(ctx context.Context, propertyID string, overrides []*priceoverride.PriceOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range overrides {
		o.PropertyID = propertyID
		s.put(o)
	}
	return nil
}

func (s *InMemoryPriceOverrideStore) put(o *priceoverride.PriceOverride) {
	if s.overrides[o.PropertyID] == nil {
		s.overrides[o.PropertyID] = make(map[string]*priceoverride.PriceOverride)
	}
	cp := *o
	s.overrides[o.PropertyID][o.DateKey()] = &cp
}

func (s *InMemoryPriceOverrideStore) Delete(ctx context.Context, propertyID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides[propertyID], types.FormatDate(date))
	return nil
}

func (s *InMemoryPriceOverrideStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]map[string]*priceoverride.PriceOverride)
}

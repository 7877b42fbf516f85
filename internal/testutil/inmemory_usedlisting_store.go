package testutil

import (
	"context"
	"sync"

	"github.com/stayprice/stayprice/internal/domain/usedlisting"
)

type InMemoryUsedListingStore struct {
	mu       sync.RWMutex
	listings map[string]*usedlisting.UsedListing
}

func NewInMemoryUsedListingStore() *InMemoryUsedListingStore {
	return &InMemoryUsedListingStore{listings: make(map[string]*usedlisting.UsedListing)}
}

func (s *InMemoryUsedListingStore) Register(ctx context.Context, l *usedlisting.UsedListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// First claim wins, duplicates are swallowed
	if _, ok := s.listings[l.ListingID]; ok {
		return nil
	}
	cp := *l
	s.listings[l.ListingID] = &cp
	return nil
}

func (s *InMemoryUsedListingStore) Exists(ctx context.Context, listingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.listings[listingID]
	return ok, nil
}

func (s *InMemoryUsedListingStore) ListByUser(ctx context.Context, userID string) ([]*usedlisting.UsedListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*usedlisting.UsedListing, 0)
	for _, l := range s.listings {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryUsedListingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = make(map[string]*usedlisting.UsedListing)
}

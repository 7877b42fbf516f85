package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stayprice/stayprice/internal/domain/booking"
)

type InMemoryBookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*booking.Booking

	// teamOf maps property ids to team ids for the overlap query
	teamOf map[string]string
}

func NewInMemoryBookingStore() *InMemoryBookingStore {
	return &InMemoryBookingStore{
		bookings: make(map[string]*booking.Booking),
		teamOf:   make(map[string]string),
	}
}

// LinkPropertyTeam teaches the store which team a property belongs to so
// ListForTeamOverlapping can filter
func (s *InMemoryBookingStore) LinkPropertyTeam(propertyID, teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamOf[propertyID] = teamID
}

func (s *InMemoryBookingStore) Create(ctx context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *InMemoryBookingStore) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryBookingStore) GetByPMSBookingID(ctx context.Context, propertyID, pmsBookingID string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.PropertyID == propertyID && b.PMSBookingID != nil && *b.PMSBookingID == pmsBookingID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryBookingStore) Update(ctx context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *InMemoryBookingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, id)
	return nil
}

func (s *InMemoryBookingStore) ListByProperty(ctx context.Context, propertyID string) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*booking.Booking, 0)
	for _, b := range s.bookings {
		if b.PropertyID == propertyID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryBookingStore) ListForTeamOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*booking.Booking, 0)
	for _, b := range s.bookings {
		if s.teamOf[b.PropertyID] != teamID {
			continue
		}
		if b.StartDate.Before(to) && b.EndDate.After(from) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryBookingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = make(map[string]*booking.Booking)
	s.teamOf = make(map[string]string)
}

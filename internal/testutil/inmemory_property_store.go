package testutil

import (
	"context"
	"sync"

	"github.com/stayprice/stayprice/internal/domain/property"
)

type InMemoryPropertyStore struct {
	mu         sync.RWMutex
	properties map[string]*property.Property
}

func NewInMemoryPropertyStore() *InMemoryPropertyStore {
	return &InMemoryPropertyStore{properties: make(map[string]*property.Property)}
}

func (s *InMemoryPropertyStore) Create(ctx context.Context, p *property.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *InMemoryPropertyStore) GetByID(ctx context.Context, id string) (*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryPropertyStore) GetByPMSID(ctx context.Context, teamID, pmsID string) (*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.properties {
		if p.TeamID == teamID && p.PMSID != nil && *p.PMSID == pmsID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryPropertyStore) Update(ctx context.Context, p *property.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *InMemoryPropertyStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.properties, id)
	return nil
}

func (s *InMemoryPropertyStore) ListByTeam(ctx context.Context, teamID string) ([]*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*property.Property, 0)
	for _, p := range s.properties {
		if p.TeamID == teamID || p.OwnerID == teamID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryPropertyStore) CountByTeam(ctx context.Context, teamID string) (int, error) {
	properties, _ := s.ListByTeam(ctx, teamID)
	return len(properties), nil
}

func (s *InMemoryPropertyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties = make(map[string]*property.Property)
}

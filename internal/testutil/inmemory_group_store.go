package testutil

import (
	"context"
	"sync"

	"github.com/stayprice/stayprice/internal/domain/group"
)

type InMemoryGroupStore struct {
	mu     sync.RWMutex
	groups map[string]*group.Group
}

func NewInMemoryGroupStore() *InMemoryGroupStore {
	return &InMemoryGroupStore{groups: make(map[string]*group.Group)}
}

func copyGroup(g *group.Group) *group.Group {
	cp := *g
	cp.PropertyIDs = append([]string(nil), g.PropertyIDs...)
	return &cp
}

func (s *InMemoryGroupStore) Create(ctx context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *InMemoryGroupStore) GetByID(ctx context.Context, id string) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	return copyGroup(g), nil
}

func (s *InMemoryGroupStore) Update(ctx context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *InMemoryGroupStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	return nil
}

func (s *InMemoryGroupStore) ListByOwner(ctx context.Context, ownerID string) ([]*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*group.Group, 0)
	for _, g := range s.groups {
		if g.OwnerID == ownerID {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

func (s *InMemoryGroupStore) AddProperty(ctx context.Context, groupID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	for _, id := range g.PropertyIDs {
		if id == propertyID {
			return nil
		}
	}
	g.PropertyIDs = append(g.PropertyIDs, propertyID)
	return nil
}

func (s *InMemoryGroupStore) RemoveProperty(ctx context.Context, groupID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	kept := g.PropertyIDs[:0]
	for _, id := range g.PropertyIDs {
		if id != propertyID {
			kept = append(kept, id)
		}
	}
	g.PropertyIDs = kept
	return nil
}

func (s *InMemoryGroupStore) GetByProperty(ctx context.Context, propertyID string) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		for _, id := range g.PropertyIDs {
			if id == propertyID {
				return copyGroup(g), nil
			}
		}
	}
	return nil, nil
}

func (s *InMemoryGroupStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make(map[string]*group.Group)
}

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stayprice/stayprice/internal/domain/integration"
	"github.com/stayprice/stayprice/internal/types"
)

type InMemoryIntegrationStore struct {
	mu           sync.RWMutex
	integrations map[string]*integration.Integration
}

func NewInMemoryIntegrationStore() *InMemoryIntegrationStore {
	return &InMemoryIntegrationStore{integrations: make(map[string]*integration.Integration)}
}

func (s *InMemoryIntegrationStore) Create(ctx context.Context, i *integration.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Reconnecting replaces the previous credentials
	for id, existing := range s.integrations {
		if existing.UserID == i.UserID && existing.Type == i.Type {
			delete(s.integrations, id)
		}
	}
	cp := *i
	s.integrations[i.ID] = &cp
	return nil
}

func (s *InMemoryIntegrationStore) GetByUserAndType(ctx context.Context, userID string, pmsType types.PMSType) (*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.integrations {
		if i.UserID == userID && i.Type == pmsType {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryIntegrationStore) ListByUser(ctx context.Context, userID string) ([]*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*integration.Integration, 0)
	for _, i := range s.integrations {
		if i.UserID == userID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryIntegrationStore) UpdateLastSync(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.integrations[id]; ok {
		now := time.Now().UTC()
		i.LastSync = &now
	}
	return nil
}

func (s *InMemoryIntegrationStore) Delete(ctx context.Context, userID string, pmsType types.PMSType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, i := range s.integrations {
		if i.UserID == userID && i.Type == pmsType {
			delete(s.integrations, id)
		}
	}
	return nil
}

func (s *InMemoryIntegrationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrations = make(map[string]*integration.Integration)
}

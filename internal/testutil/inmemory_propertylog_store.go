package testutil

import (
	"context"
	"sync"

	"github.com/stayprice/stayprice/internal/domain/propertylog"
)

type InMemoryPropertyLogStore struct {
	mu   sync.RWMutex
	logs []*propertylog.PropertyLog
}

func NewInMemoryPropertyLogStore() *InMemoryPropertyLogStore {
	return &InMemoryPropertyLogStore{}
}

func (s *InMemoryPropertyLogStore) Create(ctx context.Context, l *propertylog.PropertyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *InMemoryPropertyLogStore) ListByProperty(ctx context.Context, propertyID string) ([]*propertylog.PropertyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*propertylog.PropertyLog, 0)
	for _, l := range s.logs {
		if l.PropertyID == propertyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryPropertyLogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = nil
}

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stayprice/stayprice/internal/domain/syscache"
)

type InMemorySysCacheStore struct {
	mu      sync.RWMutex
	entries map[string]*syscache.Entry
}

func NewInMemorySysCacheStore() *InMemorySysCacheStore {
	return &InMemorySysCacheStore{entries: make(map[string]*syscache.Entry)}
}

func (s *InMemorySysCacheStore) Get(ctx context.Context, key string) (*syscache.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *InMemorySysCacheStore) Upsert(ctx context.Context, entry *syscache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.UpdatedAt = time.Now().UTC()
	cp := *entry
	s.entries[entry.Key] = &cp
	return nil
}

func (s *InMemorySysCacheStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *InMemorySysCacheStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*syscache.Entry)
}

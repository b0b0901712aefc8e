package results

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryStore backs `--local` runs and tests.
type InMemoryStore struct {
	store *gocache.Cache
	mu    sync.RWMutex
}

func NewInMemoryStore(defaultExpiration time.Duration) *InMemoryStore {
	return &InMemoryStore{store: gocache.New(defaultExpiration, time.Minute)}
}

func (s *InMemoryStore) Set(taskID string, r *StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Set(taskID, r, gocache.DefaultExpiration)
	return nil
}

func (s *InMemoryStore) Get(taskID string) (*StepResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, found := s.store.Get(taskID); found {
		return v.(*StepResult), nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Delete(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.Get(taskID); !found {
		return ErrNotFound
	}
	s.store.Delete(taskID)
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Flush()
	return nil
}

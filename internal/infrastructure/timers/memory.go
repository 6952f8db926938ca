// Package timers provides a process-local decision timer channel for single
// instance deployments and the CLI.
package timers

import (
	"context"
	"errors"
	"sync"

	"github.com/alizenart/closeted/internal/core/domain"
)

type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]domain.DecisionTimer
	watchers map[string]map[int]func(domain.DecisionTimer)
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   map[string]domain.DecisionTimer{},
		watchers: map[string]map[int]func(domain.DecisionTimer){},
	}
}

func (s *MemoryStore) Set(_ context.Context, key string, timer domain.DecisionTimer) error {
	s.mu.Lock()
	s.values[key] = timer
	fns := make([]func(domain.DecisionTimer), 0, len(s.watchers[key]))
	for _, fn := range s.watchers[key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(timer)
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (domain.DecisionTimer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.values[key]
	if !ok {
		return domain.DecisionTimer{}, domain.WrapError(domain.ErrNotFound, "get timer", errors.New(key))
	}
	return timer, nil
}

// Subscribe replays the current value before returning, matching the KV watcher.
func (s *MemoryStore) Subscribe(_ context.Context, key string, fn func(domain.DecisionTimer)) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.watchers[key] == nil {
		s.watchers[key] = map[int]func(domain.DecisionTimer){}
	}
	s.watchers[key][id] = fn
	current, ok := s.values[key]
	s.mu.Unlock()

	if ok {
		fn(current)
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[key], id)
		if len(s.watchers[key]) == 0 {
			delete(s.watchers, key)
		}
	}, nil
}

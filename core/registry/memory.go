package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process service store, used when the gateway runs
// from a static services configuration and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]Service
	hooks    []func(slug string)
}

// NewMemoryStore creates a store preloaded with the given services.
func NewMemoryStore(services ...Service) *MemoryStore {
	s := &MemoryStore{services: map[string]Service{}}
	for _, service := range services {
		s.services[service.Slug] = service
	}
	return s
}

// Get returns the service with the given slug.
func (s *MemoryStore) Get(ctx context.Context, slug string) (Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	service, ok := s.services[slug]
	if !ok {
		return Service{}, fmt.Errorf("%s: %w", slug, ErrNotConfigured)
	}
	return service, nil
}

// List returns all services, ordered by slug.
func (s *MemoryStore) List(ctx context.Context) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, 0, len(s.services))
	for _, service := range s.services {
		out = append(out, service)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Put creates or updates a service. Subscribed hooks run after the
// mutation, before Put returns.
func (s *MemoryStore) Put(ctx context.Context, service Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[service.Slug] = service
	s.notify(service.Slug)
	return nil
}

// Delete removes a service. Subscribed hooks run after the mutation,
// before Delete returns.
func (s *MemoryStore) Delete(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.services, slug)
	s.notify(slug)
	return nil
}

// Subscribe registers a change hook.
func (s *MemoryStore) Subscribe(hook func(slug string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *MemoryStore) notify(slug string) {
	for _, hook := range s.hooks {
		hook(slug)
	}
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tripsetu/backend/internal/domain/trip"
)

// routeEntry is a stored route with expiration
type routeEntry struct {
	route     trip.Route
	expiresAt time.Time
}

// InMemoryRouteStore implements trip.RouteStore using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryRouteStore struct {
	mu        sync.RWMutex
	entries   map[string]routeEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRouteStore creates an in-memory route store. It starts a
// background goroutine to clean up expired entries.
func NewInMemoryRouteStore() *InMemoryRouteStore {
	store := &InMemoryRouteStore{
		entries:  make(map[string]routeEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// SaveRoute pins transactionID to route for at most ttl
func (s *InMemoryRouteStore) SaveRoute(ctx context.Context, transactionID string, route trip.Route, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[transactionID] = routeEntry{
		route:     route,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// FindRoute returns the pinned route, or trip.ErrRouteNotFound
func (s *InMemoryRouteStore) FindRoute(ctx context.Context, transactionID string) (*trip.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[transactionID]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, trip.ErrRouteNotFound
	}

	route := e.route
	return &route, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryRouteStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryRouteStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryRouteStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryRouteStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryRouteStore implements RouteStore
var _ trip.RouteStore = (*InMemoryRouteStore)(nil)

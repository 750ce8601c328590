// Package memory is the in-process audit store used when no database is
// configured.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"custos/internal/audit"
	id "custos/pkg/domain"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

// Clear removes all events. Use between tests to ensure isolation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Append stores one event, assigning an ID when the caller did not.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListByEntity(_ context.Context, entityID id.EntityID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Event
	for _, event := range s.events {
		if event.EntityID == entityID {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

// ListRecent returns up to limit events, newest first. Events are held in
// append order, which matches OccurredAt order for a single process.
func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.events) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}

	recent := make([]audit.Event, 0, len(s.events)-start)
	for i := len(s.events) - 1; i >= start; i-- {
		recent = append(recent, s.events[i])
	}
	return recent, nil
}

var _ audit.Store = (*Store)(nil)

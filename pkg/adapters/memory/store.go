package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/carepath/pkg/domain"
)

// Store keeps journey sessions in process memory. It is the default store of the engine
// and loses everything on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.JourneyState
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.JourneyState)}
}

// Save stores a deep copy of state under sessionID.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	if state == nil {
		return fmt.Errorf("memory store: nil state for session %q", sessionID)
	}
	snapshot := state.Clone()

	s.mu.Lock()
	s.sessions[sessionID] = snapshot
	s.mu.Unlock()
	return nil
}

// Load returns a deep copy of the stored session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete forgets a session. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the stored session IDs sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

// Len reports how many sessions are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

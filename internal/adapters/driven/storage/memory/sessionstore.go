package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ExplainSession
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.ExplainSession),
	}
}

// Save stores or updates a session.
func (s *SessionStore) Save(_ context.Context, session *domain.ExplainSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.ExplainSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	return &session, nil
}

// List returns sessions most recently updated first.
func (s *SessionStore) List(_ context.Context) ([]domain.ExplainSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.ExplainSession, 0, len(s.sessions))
	for id := range s.sessions {
		sessions = append(sessions, s.sessions[id])
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].LastUpdated.Equal(sessions[j].LastUpdated) {
			return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	return sessions, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// SessionStore persists explain sessions.
type SessionStore interface {
	// Save stores or updates a session.
	Save(ctx context.Context, session *domain.ExplainSession) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound when no such session exists.
	Get(ctx context.Context, sessionID string) (*domain.ExplainSession, error)

	// List returns sessions most recently updated first.
	List(ctx context.Context) ([]domain.ExplainSession, error)

	// Delete removes a session.
	// Returns domain.ErrNotFound when no such session exists.
	Delete(ctx context.Context, sessionID string) error
}

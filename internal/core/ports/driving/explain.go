package driving

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// ExplainService answers follow-up questions about review results,
// quoting the evidence the review retrieved.
type ExplainService interface {
	// StartSession opens a question session for one rule result within
	// a completed review.
	StartSession(ctx context.Context, reviewID, ruleID string) (*domain.ExplainSession, error)

	// Ask answers a question within a session and appends both the
	// question and the answer to the session transcript.
	Ask(ctx context.Context, sessionID, question string) (*domain.Explanation, error)

	// GetSession retrieves a session with its transcript.
	GetSession(ctx context.Context, sessionID string) (*domain.ExplainSession, error)

	// ListSessions returns sessions most recently updated first.
	ListSessions(ctx context.Context) ([]domain.ExplainSession, error)

	// DeleteSession removes a session and its transcript.
	DeleteSession(ctx context.Context, sessionID string) error
}

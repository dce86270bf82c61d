package driving

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// ReviewService runs rule reviews against ingested documents and manages
// the resulting tasks.
type ReviewService interface {
	// Review runs the given rules against the document and blocks until
	// the task reaches a terminal state. Progress, when non-nil, is
	// invoked after every rule.
	Review(ctx context.Context, req ReviewRequest) (*domain.ReviewTask, error)

	// Get retrieves a task by review ID.
	Get(ctx context.Context, reviewID string) (*domain.ReviewTask, error)

	// List returns tasks with the given status in creation order.
	// An empty status returns all tasks.
	List(ctx context.Context, status domain.ReviewStatus) ([]domain.ReviewTask, error)

	// Delete removes a task.
	Delete(ctx context.Context, reviewID string) error
}

// ReviewRequest describes one review run.
type ReviewRequest struct {
	// DocID is the document to review.
	DocID string

	// RuleIDs selects the rules to apply. Empty means all enabled rules.
	RuleIDs []string

	// Progress, when non-nil, is invoked after every rule.
	Progress domain.ProgressFunc
}

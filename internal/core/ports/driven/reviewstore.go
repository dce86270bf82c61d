package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// ReviewStore persists review tasks. The review orchestrator is the only
// writer; stores keep whatever task value they were last given.
type ReviewStore interface {
	// Save stores or updates a task.
	Save(ctx context.Context, task *domain.ReviewTask) error

	// Get retrieves a task by review ID.
	// Returns domain.ErrNotFound when no such task exists.
	Get(ctx context.Context, reviewID string) (*domain.ReviewTask, error)

	// List returns tasks with the given status in creation order.
	// An empty status returns all tasks.
	List(ctx context.Context, status domain.ReviewStatus) ([]domain.ReviewTask, error)

	// Delete removes a task.
	// Returns domain.ErrNotFound when no such task exists.
	Delete(ctx context.Context, reviewID string) error
}

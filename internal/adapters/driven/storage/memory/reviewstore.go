package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure ReviewStore implements the interface.
var _ driven.ReviewStore = (*ReviewStore)(nil)

// ReviewStore is an in-memory implementation of driven.ReviewStore.
// The order slice preserves creation order for List.
type ReviewStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.ReviewTask
	order []string
}

// NewReviewStore creates a new in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		tasks: make(map[string]domain.ReviewTask),
	}
}

// Save stores or updates a task.
func (s *ReviewStore) Save(_ context.Context, task *domain.ReviewTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ReviewID]; !ok {
		s.order = append(s.order, task.ReviewID)
	}
	s.tasks[task.ReviewID] = *task
	return nil
}

// Get retrieves a task by review ID.
func (s *ReviewStore) Get(_ context.Context, reviewID string) (*domain.ReviewTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[reviewID]
	if !ok {
		return nil, fmt.Errorf("%w: review %s", domain.ErrNotFound, reviewID)
	}
	return &task, nil
}

// List returns tasks with the given status in creation order.
// An empty status returns all tasks.
func (s *ReviewStore) List(_ context.Context, status domain.ReviewStatus) ([]domain.ReviewTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []domain.ReviewTask
	for _, reviewID := range s.order {
		task, ok := s.tasks[reviewID]
		if !ok {
			continue
		}
		if status != "" && task.Status != status {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Delete removes a task.
func (s *ReviewStore) Delete(_ context.Context, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[reviewID]; !ok {
		return fmt.Errorf("%w: review %s", domain.ErrNotFound, reviewID)
	}
	delete(s.tasks, reviewID)
	kept := s.order[:0]
	for _, id := range s.order {
		if id != reviewID {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

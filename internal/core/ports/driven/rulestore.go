package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// RuleStore persists compliance rules.
type RuleStore interface {
	// Save stores a new rule.
	// Returns domain.ErrAlreadyExists when the rule ID is taken.
	Save(ctx context.Context, rule *domain.Rule) error

	// Update replaces an existing rule.
	// Returns domain.ErrNotFound when the rule does not exist.
	Update(ctx context.Context, rule *domain.Rule) error

	// Get retrieves a rule by ID.
	// Returns domain.ErrNotFound when no such rule exists.
	Get(ctx context.Context, ruleID string) (*domain.Rule, error)

	// List returns rules ordered by rule ID. With enabledOnly set,
	// disabled rules are skipped.
	List(ctx context.Context, enabledOnly bool) ([]domain.Rule, error)

	// Delete removes a rule.
	// Returns domain.ErrNotFound when no such rule exists.
	Delete(ctx context.Context, ruleID string) error
}

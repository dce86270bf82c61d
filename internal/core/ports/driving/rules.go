package driving

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// RulesService manages the compliance rule inventory.
type RulesService interface {
	// Create validates and stores a new rule.
	Create(ctx context.Context, rule *domain.Rule) error

	// Update validates and replaces an existing rule, bumping its version.
	Update(ctx context.Context, rule *domain.Rule) error

	// Get retrieves a rule by ID.
	Get(ctx context.Context, ruleID string) (*domain.Rule, error)

	// List returns rules ordered by rule ID. With enabledOnly set,
	// disabled rules are skipped.
	List(ctx context.Context, enabledOnly bool) ([]domain.Rule, error)

	// Delete removes a rule.
	Delete(ctx context.Context, ruleID string) error

	// SetEnabled switches a rule on or off without editing it.
	SetEnabled(ctx context.Context, ruleID string, enabled bool) error

	// Import loads rule definitions from a YAML or JSON file or directory
	// and stores them. Existing rules are skipped unless overwrite is set.
	Import(ctx context.Context, path string, overwrite bool) (*ImportReport, error)

	// Parse derives a rule from one natural-language requirement using a
	// deterministic pattern bank. The rule is returned, not stored.
	Parse(ctx context.Context, text string) (*domain.Rule, error)

	// Watch reloads and re-imports the rules directory whenever a file in
	// it changes. It blocks until ctx is cancelled.
	Watch(ctx context.Context, dir string) error
}

// ImportReport summarises one rule import.
type ImportReport struct {
	// Imported is the number of rules stored.
	Imported int

	// Skipped is the number of rules left untouched because they already
	// existed and overwrite was off.
	Skipped int

	// Failed is the number of rules the store rejected.
	Failed int
}

package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// RuleSource loads rule definitions from YAML or JSON files on disk.
type RuleSource interface {
	// LoadFile reads all rule definitions in the file.
	// Rules that fail validation are returned as an error naming the rule.
	LoadFile(ctx context.Context, path string) ([]domain.Rule, error)

	// LoadDir reads all rule files in the directory, sorted by file name.
	LoadDir(ctx context.Context, dir string) ([]domain.Rule, error)

	// Watch reloads the directory each time a rule file changes and
	// passes the result to onChange. It blocks until ctx is cancelled.
	Watch(ctx context.Context, dir string, onChange func([]domain.Rule)) error
}

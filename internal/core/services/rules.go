package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Ensure RulesService implements the interface.
var _ driving.RulesService = (*RulesService)(nil)

// RulesService manages the compliance rule inventory: CRUD over the
// rule store, pack imports from disk, the natural-language pattern
// parser, and directory watching for live reloads.
type RulesService struct {
	store  driven.RuleStore
	source driven.RuleSource
}

// NewRulesService creates a new rules service. The source is optional;
// without it Import and Watch report ErrNotImplemented.
func NewRulesService(store driven.RuleStore, source driven.RuleSource) *RulesService {
	return &RulesService{
		store:  store,
		source: source,
	}
}

// Create validates and stores a new rule.
func (s *RulesService) Create(ctx context.Context, rule *domain.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is required", domain.ErrInvalidInput)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	if rule.Version <= 0 {
		rule.Version = 1
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := s.store.Save(ctx, rule); err != nil {
		return err
	}
	logger.Debug("Created rule %s (%s)", rule.RuleID, rule.Type)
	return nil
}

// Update validates and replaces an existing rule, bumping its version.
func (s *RulesService) Update(ctx context.Context, rule *domain.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is required", domain.ErrInvalidInput)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	existing, err := s.store.Get(ctx, rule.RuleID)
	if err != nil {
		return err
	}

	rule.Version = existing.Version + 1
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, rule); err != nil {
		return err
	}
	logger.Debug("Updated rule %s to version %d", rule.RuleID, rule.Version)
	return nil
}

// Get retrieves a rule by ID.
func (s *RulesService) Get(ctx context.Context, ruleID string) (*domain.Rule, error) {
	return s.store.Get(ctx, ruleID)
}

// List returns rules ordered by rule ID.
func (s *RulesService) List(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	return s.store.List(ctx, enabledOnly)
}

// Delete removes a rule.
func (s *RulesService) Delete(ctx context.Context, ruleID string) error {
	return s.store.Delete(ctx, ruleID)
}

// SetEnabled switches a rule on or off. The version is not bumped; the
// toggle is operational state, not an edit.
func (s *RulesService) SetEnabled(ctx context.Context, ruleID string, enabled bool) error {
	rule, err := s.store.Get(ctx, ruleID)
	if err != nil {
		return err
	}
	if rule.Enabled == enabled {
		return nil
	}

	rule.Enabled = enabled
	rule.UpdatedAt = time.Now()
	return s.store.Update(ctx, rule)
}

// Import loads rule definitions from a YAML or JSON file, or from every
// pack in a directory, and stores them. Rules that already exist are
// skipped unless overwrite is set.
func (s *RulesService) Import(ctx context.Context, path string, overwrite bool) (*driving.ImportReport, error) {
	if s.source == nil {
		return nil, domain.ErrNotImplemented
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule pack: %w", err)
	}

	var rules []domain.Rule
	if info.IsDir() {
		rules, err = s.source.LoadDir(ctx, path)
	} else {
		rules, err = s.source.LoadFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	logger.Section("Importing Rules")
	report := s.storeRules(ctx, rules, overwrite)
	logger.Info("Imported %d rules from %s (%d skipped, %d failed)",
		report.Imported, path, report.Skipped, report.Failed)
	return report, nil
}

// storeRules saves loaded rules, resolving collisions per the overwrite
// flag. Store failures are counted, not fatal, so one bad rule does not
// abort a pack.
func (s *RulesService) storeRules(ctx context.Context, rules []domain.Rule, overwrite bool) *driving.ImportReport {
	report := &driving.ImportReport{}
	now := time.Now()

	for i := range rules {
		rule := rules[i]
		rule.CreatedAt = now
		rule.UpdatedAt = now

		err := s.store.Save(ctx, &rule)
		if err == nil {
			report.Imported++
			continue
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			logger.Warn("Importing rule %s: %v", rule.RuleID, err)
			report.Failed++
			continue
		}
		if !overwrite {
			report.Skipped++
			continue
		}

		// The pack is the source of truth on overwrite: its version
		// wins, only the creation time survives.
		if existing, getErr := s.store.Get(ctx, rule.RuleID); getErr == nil {
			rule.CreatedAt = existing.CreatedAt
		}
		if err := s.store.Update(ctx, &rule); err != nil {
			logger.Warn("Overwriting rule %s: %v", rule.RuleID, err)
			report.Failed++
			continue
		}
		report.Imported++
	}

	return report
}

// Parse derives a rule from one natural-language requirement using the
// pattern bank. The rule is returned, not stored; text the bank does
// not recognise degrades to a keyword rule.
func (s *RulesService) Parse(_ context.Context, text string) (*domain.Rule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: rule text is required", domain.ErrInvalidInput)
	}
	return parseRuleText(text), nil
}

// Watch re-imports the rules directory whenever a pack in it changes,
// overwriting stored rules with the reloaded definitions. It blocks
// until ctx is cancelled.
func (s *RulesService) Watch(ctx context.Context, dir string) error {
	if s.source == nil {
		return domain.ErrNotImplemented
	}

	logger.Section("Watching Rules Directory")
	logger.Info("Watching %s for rule changes", dir)

	return s.source.Watch(ctx, dir, func(rules []domain.Rule) {
		report := s.storeRules(ctx, rules, true)
		logger.Info("Reloaded rules: %d stored, %d failed", report.Imported, report.Failed)
	})
}

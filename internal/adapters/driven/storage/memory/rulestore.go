package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure RuleStore implements the interface.
var _ driven.RuleStore = (*RuleStore)(nil)

// RuleStore is an in-memory implementation of driven.RuleStore.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]domain.Rule
}

// NewRuleStore creates a new in-memory rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{
		rules: make(map[string]domain.Rule),
	}
}

// Save stores a new rule.
func (s *RuleStore) Save(_ context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.RuleID]; ok {
		return fmt.Errorf("%w: rule %s", domain.ErrAlreadyExists, rule.RuleID)
	}
	s.rules[rule.RuleID] = *rule
	return nil
}

// Update replaces an existing rule.
func (s *RuleStore) Update(_ context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.RuleID]; !ok {
		return fmt.Errorf("%w: rule %s", domain.ErrNotFound, rule.RuleID)
	}
	s.rules[rule.RuleID] = *rule
	return nil
}

// Get retrieves a rule by ID.
func (s *RuleStore) Get(_ context.Context, ruleID string) (*domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, fmt.Errorf("%w: rule %s", domain.ErrNotFound, ruleID)
	}
	return &rule, nil
}

// List returns rules ordered by rule ID.
func (s *RuleStore) List(_ context.Context, enabledOnly bool) ([]domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rules []domain.Rule
	for id := range s.rules {
		if enabledOnly && !s.rules[id].Enabled {
			continue
		}
		rules = append(rules, s.rules[id])
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].RuleID < rules[j].RuleID
	})
	return rules, nil
}

// Delete removes a rule.
func (s *RuleStore) Delete(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID]; !ok {
		return fmt.Errorf("%w: rule %s", domain.ErrNotFound, ruleID)
	}
	delete(s.rules, ruleID)
	return nil
}

package domain

import (
	"fmt"
	"regexp"
	"time"
)

// RuleType classifies what a compliance rule checks for.
type RuleType string

// Available rule types.
const (
	// RuleNumericConstraint checks a numeric field against a bound
	// (payment cycle ≤ 30 days, penalty rate ≤ 5%).
	RuleNumericConstraint RuleType = "numeric_constraint"

	// RuleTextContains checks that required wording appears.
	RuleTextContains RuleType = "text_contains"

	// RuleProhibition checks that forbidden wording does NOT appear.
	RuleProhibition RuleType = "prohibition"

	// RuleRequirement checks that a required clause exists.
	RuleRequirement RuleType = "requirement"
)

// IsValid returns true if the rule type is recognised.
func (t RuleType) IsValid() bool {
	switch t {
	case RuleNumericConstraint, RuleTextContains, RuleProhibition, RuleRequirement:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t RuleType) String() string {
	return string(t)
}

// Description returns a human-readable description of the type.
func (t RuleType) Description() string {
	switch t {
	case RuleNumericConstraint:
		return "Numeric constraint (value within a bound)"
	case RuleTextContains:
		return "Text contains (required wording present)"
	case RuleProhibition:
		return "Prohibition (forbidden wording absent)"
	case RuleRequirement:
		return "Requirement (mandatory clause present)"
	default:
		return unknownDescription
	}
}

// AllRuleTypes returns all recognised rule types.
func AllRuleTypes() []RuleType {
	return []RuleType{
		RuleNumericConstraint,
		RuleTextContains,
		RuleProhibition,
		RuleRequirement,
	}
}

// RiskLevel grades how severe a rule violation is.
type RiskLevel string

// Available risk levels, most severe first.
const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// IsValid returns true if the risk level is recognised.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (l RiskLevel) String() string {
	return string(l)
}

// ruleIDPattern constrains rule identifiers to lowercase snake case.
var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Rule is a structured compliance check. Rules are consumed by the
// query builder and orchestrator; the rule store owns their lifecycle.
type Rule struct {
	// RuleID is the unique, lowercase snake-case identifier.
	RuleID string `json:"rule_id" yaml:"rule_id"`

	// Name is the human-readable rule name.
	Name string `json:"name" yaml:"name"`

	// Category groups related rules ("Payment", "Confidentiality", ...).
	Category string `json:"category" yaml:"category"`

	// Intent is the natural-language statement of what the rule checks.
	Intent string `json:"intent" yaml:"intent"`

	// Type selects the check semantics and the query templates.
	Type RuleType `json:"type" yaml:"type"`

	// Params carries type-specific parameters (thresholds, keywords,
	// prohibited patterns, required clauses).
	Params map[string]any `json:"params" yaml:"params"`

	// RiskLevel grades violations of this rule.
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`

	// RetrievalTags bias retrieval toward chunks whose clause hint
	// matches one of the tags.
	RetrievalTags []string `json:"retrieval_tags" yaml:"retrieval_tags"`

	// PromptTemplateID selects the review prompt template.
	PromptTemplateID string `json:"prompt_template_id" yaml:"prompt_template_id"`

	// Version increments on every update.
	Version int `json:"version" yaml:"version"`

	// Enabled rules participate in reviews; disabled ones are skipped.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Description is optional free-form detail.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Validate checks the rule against the rule schema: identifier format,
// enum fields, non-empty tags, and the type-specific required params.
func (r Rule) Validate() error {
	if !ruleIDPattern.MatchString(r.RuleID) {
		return fmt.Errorf("%w: rule_id %q must match %s", ErrInvalidRule, r.RuleID, ruleIDPattern)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if r.Intent == "" {
		return fmt.Errorf("%w: intent is required", ErrInvalidRule)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, r.Type)
	}
	if !r.RiskLevel.IsValid() {
		return fmt.Errorf("%w: unknown risk_level %q", ErrInvalidRule, r.RiskLevel)
	}
	if len(r.RetrievalTags) == 0 {
		return fmt.Errorf("%w: retrieval_tags must be non-empty", ErrInvalidRule)
	}

	var required []string
	switch r.Type {
	case RuleNumericConstraint:
		required = []string{"field", "operator", "value"}
	case RuleTextContains:
		required = []string{"keywords", "match_mode"}
	case RuleProhibition:
		required = []string{"prohibited_patterns"}
	case RuleRequirement:
		required = []string{"required_clauses"}
	}
	for _, key := range required {
		if _, ok := r.Params[key]; !ok {
			return fmt.Errorf("%w: %s requires params.%s", ErrInvalidRule, r.Type, key)
		}
	}
	return nil
}

package domain

import "time"

// ReviewStatus is the lifecycle state of a review task.
// PENDING and RUNNING are transient; COMPLETED and FAILED are terminal.
type ReviewStatus string

// Review task states.
const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewRunning   ReviewStatus = "RUNNING"
	ReviewCompleted ReviewStatus = "COMPLETED"
	ReviewFailed    ReviewStatus = "FAILED"
)

// IsValid returns true if the status is recognised.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewRunning, ReviewCompleted, ReviewFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the task can no longer change.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewCompleted || s == ReviewFailed
}

// String returns the string representation.
func (s ReviewStatus) String() string {
	return string(s)
}

// ResultStatus is the verdict for one rule within a review.
type ResultStatus string

// Per-rule verdicts.
const (
	// ResultPass: the document satisfies the rule.
	ResultPass ResultStatus = "PASS"

	// ResultRisk: the document conflicts with the rule.
	ResultRisk ResultStatus = "RISK"

	// ResultMissing: no relevant clause was found. A MISSING result
	// never carries evidence.
	ResultMissing ResultStatus = "MISSING"

	// ResultFailed: the rule's review could not be completed
	// (no queries, model error, validation failure).
	ResultFailed ResultStatus = "FAILED"
)

// IsValid returns true if the verdict is recognised.
func (s ResultStatus) IsValid() bool {
	switch s {
	case ResultPass, ResultRisk, ResultMissing, ResultFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ResultStatus) String() string {
	return string(s)
}

// Evidence is a quoted, page-anchored excerpt cited for a verdict.
type Evidence struct {
	// ChunkID names the chunk the quote came from.
	ChunkID string `json:"chunk_id"`

	// Page anchors the quote in the document.
	Page int `json:"page"`

	// Text is the verbatim quoted excerpt.
	Text string `json:"text"`
}

// ReviewResult is the verdict for one rule within a task. Results are
// appended once per rule and are immutable after append.
// Invariant: Status == MISSING implies len(Evidence) == 0.
type ReviewResult struct {
	// RuleID and RuleName identify the reviewed rule.
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`

	// Status is the verdict.
	Status ResultStatus `json:"status"`

	// Reason explains the verdict in prose.
	Reason string `json:"reason"`

	// Evidence cites the passages the verdict rests on.
	Evidence []Evidence `json:"evidence"`

	// Confidence in [0,1]; 0.8 when the model omits it.
	Confidence float64 `json:"confidence"`

	// Suggestion is an optional remediation hint.
	Suggestion string `json:"suggestion,omitempty"`

	// Error carries the failure detail for FAILED results.
	Error string `json:"error,omitempty"`
}

// ReviewTask is the unit of work executing a set of rules against one
// document. Only the orchestrator mutates a task.
type ReviewTask struct {
	// ReviewID is "review_{doc_id}_{8 hex}".
	ReviewID string `json:"review_id"`

	// DocID is the document under review.
	DocID string `json:"doc_id"`

	// RuleIDs are the rules to execute, in order.
	RuleIDs []string `json:"rule_ids"`

	// Status is the task lifecycle state.
	Status ReviewStatus `json:"status"`

	// Results accumulate one entry per processed rule.
	Results []ReviewResult `json:"results"`

	// StartedAt/CompletedAt bracket the RUNNING window.
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error carries the failure detail when the task itself FAILED.
	Error string `json:"error,omitempty"`

	// Metadata carries auxiliary fields (total_rules, llm_model, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Progress returns completed and total rule counts for the task.
func (t ReviewTask) Progress() (completed, total int) {
	total = len(t.RuleIDs)
	completed = len(t.Results)
	return completed, total
}

// ProgressFunc receives per-rule progress while a review runs.
// It is called after every rule, successful or failed.
type ProgressFunc func(reviewID string, completed, total int, message string)

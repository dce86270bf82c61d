package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Review completion defaults. Verdicts should be reproducible, so the
// temperature stays low.
const (
	defaultMaxRetrievedChunks = 10
	reviewMaxTokens           = 2000
	reviewTemperature         = 0.3
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// ReviewService orchestrates rule reviews: retrieval query building,
// candidate retrieval, prompt assembly, model completion and output
// validation, one rule at a time.
//
// A failing rule never fails the task. Each rule's failure is recorded
// as a FAILED result and the run moves on; only pre-flight problems
// (unknown document, no rules, unavailable model) surface as errors.
//
// Tasks live in an in-memory table while the process runs. Terminal
// tasks are additionally written to the archive store, when one is
// configured, so results survive restarts.
type ReviewService struct {
	docStore  driven.DocumentStore
	ruleStore driven.RuleStore
	tasks     driven.ReviewStore
	archive   driven.ReviewStore
	pipeline  *EmbeddingPipeline
	assembler *PromptAssembler
	llm       driven.LLMService
	validator driven.ReviewOutputValidator
	builder   *QueryBuilder

	maxRetrievedChunks int
}

// ReviewOption configures a ReviewService.
type ReviewOption func(*ReviewService)

// WithMaxRetrievedChunks overrides the retrieval budget per rule.
func WithMaxRetrievedChunks(n int) ReviewOption {
	return func(s *ReviewService) {
		if n > 0 {
			s.maxRetrievedChunks = n
		}
	}
}

// WithQueryBuilder replaces the default query builder, letting the
// caller apply configured per-rule query caps.
func WithQueryBuilder(builder *QueryBuilder) ReviewOption {
	return func(s *ReviewService) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// NewReviewService creates the review orchestrator. The archive store
// may be nil, in which case tasks only live as long as the process.
func NewReviewService(
	docStore driven.DocumentStore,
	ruleStore driven.RuleStore,
	tasks driven.ReviewStore,
	archive driven.ReviewStore,
	pipeline *EmbeddingPipeline,
	prompts driven.PromptStore,
	llm driven.LLMService,
	validator driven.ReviewOutputValidator,
	opts ...ReviewOption,
) *ReviewService {
	s := &ReviewService{
		docStore:           docStore,
		ruleStore:          ruleStore,
		tasks:              tasks,
		archive:            archive,
		pipeline:           pipeline,
		assembler:          NewPromptAssembler(prompts),
		llm:                llm,
		validator:          validator,
		builder:            NewQueryBuilder(),
		maxRetrievedChunks: defaultMaxRetrievedChunks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review runs the requested rules against the document and blocks
// until the task is terminal. Rules run sequentially; cancellation is
// honoured between rules and marks the task FAILED. A task that fails
// mid-run is still returned with its partial results, not as an error.
func (s *ReviewService) Review(ctx context.Context, req driving.ReviewRequest) (*domain.ReviewTask, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	doc, err := s.docStore.GetDocument(ctx, req.DocID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc.Status == domain.DocumentReviewing {
		return nil, fmt.Errorf("%w: document %s", domain.ErrReviewInProgress, req.DocID)
	}

	rules, err := s.resolveRules(ctx, req.RuleIDs)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules to review", domain.ErrInvalidInput)
	}

	task := &domain.ReviewTask{
		ReviewID: fmt.Sprintf("review_%s_%s", req.DocID, randomHex(4)),
		DocID:    req.DocID,
		RuleIDs:  ruleIDsOf(rules),
		Status:   domain.ReviewPending,
		Metadata: map[string]any{
			"total_rules": len(rules),
			"llm_model":   s.llm.ModelName(),
			"created_at":  time.Now().Format(time.RFC3339),
		},
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("saving review task: %w", err)
	}

	s.run(ctx, task, rules, req.Progress)
	s.archiveTask(ctx, task)
	return task, nil
}

// run drives the task from PENDING to a terminal state.
func (s *ReviewService) run(ctx context.Context, task *domain.ReviewTask, rules []domain.Rule, progress domain.ProgressFunc) {
	started := time.Now()
	task.Status = domain.ReviewRunning
	task.StartedAt = &started
	s.saveTask(ctx, task)
	s.setDocumentStatus(ctx, task.DocID, domain.DocumentReviewing, "")

	logger.Section("Reviewing Document")
	logger.Info("Review %s: %d rules against %s (model %s)",
		task.ReviewID, len(rules), task.DocID, s.llm.ModelName())

	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, task, domain.ReviewFailed, err.Error())
			return
		}

		result := s.reviewRule(ctx, task.DocID, rule)
		task.Results = append(task.Results, result)
		s.saveTask(ctx, task)

		logger.Info("Rule %d/%d %s: %s", i+1, len(rules), rule.RuleID, result.Status)
		if progress != nil {
			progress(task.ReviewID, i+1, len(rules), fmt.Sprintf("%s: %s", rule.Name, result.Status))
		}
	}

	s.finish(ctx, task, domain.ReviewCompleted, "")
}

// finish moves the task to its terminal state and restores the
// document status.
func (s *ReviewService) finish(ctx context.Context, task *domain.ReviewTask, status domain.ReviewStatus, errMessage string) {
	completed := time.Now()
	task.Status = status
	task.CompletedAt = &completed
	task.Error = errMessage
	task.Metadata["completed_at"] = completed.Format(time.RFC3339)
	s.saveTask(ctx, task)

	if status == domain.ReviewCompleted {
		s.setDocumentStatus(ctx, task.DocID, domain.DocumentReviewed, "")
		logger.Info("Review %s completed: %d results in %v",
			task.ReviewID, len(task.Results), completed.Sub(*task.StartedAt))
		return
	}
	s.setDocumentStatus(ctx, task.DocID, domain.DocumentReady, "")
	logger.Warn("Review %s failed: %s", task.ReviewID, errMessage)
}

// reviewRule runs one rule end to end. Every failure path, including a
// panic in a downstream component, degrades to a FAILED result so the
// task keeps its one-result-per-rule shape.
func (s *ReviewService) reviewRule(ctx context.Context, docID string, rule domain.Rule) (result domain.ReviewResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Rule %s panicked: %v", rule.RuleID, r)
			result = ruleFailure(rule, fmt.Sprintf("规则审查失败: %v", r), fmt.Sprintf("%v", r))
		}
	}()

	logger.Debug("Reviewing rule %s (%s)", rule.RuleID, rule.Name)

	build := s.builder.BuildQueries([]domain.Rule{rule}, false)
	if len(build.Queries) == 0 {
		return ruleFailure(rule, "无法生成检索查询", "")
	}

	hits, err := s.retrieve(ctx, docID, build.Queries, rule.RetrievalTags)
	if err != nil {
		return ruleFailure(rule, fmt.Sprintf("规则审查失败: %v", err), err.Error())
	}
	logger.Debug("Rule %s: %d candidate chunks", rule.RuleID, len(hits))

	prompt, err := s.assembler.BuildReviewPrompt(rule, hits)
	if err != nil {
		return ruleFailure(rule, fmt.Sprintf("规则审查失败: %v", err), err.Error())
	}
	system, err := s.assembler.SystemPrompt()
	if err != nil {
		return ruleFailure(rule, fmt.Sprintf("规则审查失败: %v", err), err.Error())
	}

	raw, err := s.llm.Complete(ctx, system, prompt, driven.CompleteOptions{
		MaxTokens:   reviewMaxTokens,
		Temperature: reviewTemperature,
	})
	if err != nil {
		return ruleFailure(rule, fmt.Sprintf("LLM 调用失败: %v", err), err.Error())
	}

	parsed, err := s.validator.Validate(raw)
	if err != nil {
		return ruleFailure(rule, "LLM 输出解析失败: "+err.Error(), err.Error())
	}

	// The task, not the model, decides which rule a verdict belongs to.
	result = *parsed
	result.RuleID = rule.RuleID
	result.RuleName = rule.Name
	return result
}

// retrieve runs each query against the document, filters by the rule's
// retrieval tags, and deduplicates by chunk, in query order, up to the
// retrieval budget.
func (s *ReviewService) retrieve(ctx context.Context, docID string, queries []domain.SearchQuery, tags []string) ([]domain.VectorHit, error) {
	seen := make(map[string]struct{})
	var unique []domain.VectorHit

	for _, query := range queries {
		hits, err := s.pipeline.Search(ctx, query.Text, s.maxRetrievedChunks, domain.SearchFilter{DocID: docID})
		if err != nil {
			return nil, fmt.Errorf("retrieving for query %s: %w", query.QueryID, err)
		}
		for _, hit := range hits {
			if len(tags) > 0 && !matchesAnyTag(hit.ClauseHint, tags) {
				continue
			}
			if _, dup := seen[hit.ChunkID]; dup {
				continue
			}
			seen[hit.ChunkID] = struct{}{}
			unique = append(unique, hit)
		}
	}

	if len(unique) > s.maxRetrievedChunks {
		unique = unique[:s.maxRetrievedChunks]
	}
	return unique, nil
}

// resolveRules loads the requested rules, or every enabled rule when
// none are named. Explicitly named rules are used even when disabled.
func (s *ReviewService) resolveRules(ctx context.Context, ruleIDs []string) ([]domain.Rule, error) {
	if len(ruleIDs) == 0 {
		rules, err := s.ruleStore.List(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("listing rules: %w", err)
		}
		return rules, nil
	}

	rules := make([]domain.Rule, 0, len(ruleIDs))
	for _, ruleID := range ruleIDs {
		rule, err := s.ruleStore.Get(ctx, ruleID)
		if err != nil {
			return nil, fmt.Errorf("loading rule %s: %w", ruleID, err)
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

// Get retrieves a task, preferring the live table over the archive.
func (s *ReviewService) Get(ctx context.Context, reviewID string) (*domain.ReviewTask, error) {
	task, err := s.tasks.Get(ctx, reviewID)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || s.archive == nil {
		return nil, err
	}
	return s.archive.Get(ctx, reviewID)
}

// List returns tasks with the given status in creation order. Archived
// tasks from earlier runs come first; a live task shadows its archived
// copy.
func (s *ReviewService) List(ctx context.Context, status domain.ReviewStatus) ([]domain.ReviewTask, error) {
	live, err := s.tasks.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return live, nil
	}

	archived, err := s.archive.List(ctx, status)
	if err != nil {
		return nil, err
	}

	liveIDs := make(map[string]struct{}, len(live))
	for _, task := range live {
		liveIDs[task.ReviewID] = struct{}{}
	}

	merged := make([]domain.ReviewTask, 0, len(archived)+len(live))
	for _, task := range archived {
		if _, shadowed := liveIDs[task.ReviewID]; !shadowed {
			merged = append(merged, task)
		}
	}
	return append(merged, live...), nil
}

// Delete removes a terminal task from both stores.
func (s *ReviewService) Delete(ctx context.Context, reviewID string) error {
	task, err := s.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if !task.Status.IsTerminal() {
		return fmt.Errorf("%w: review %s is %s", domain.ErrReviewInProgress, reviewID, task.Status)
	}

	if err := s.tasks.Delete(ctx, reviewID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, reviewID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

// saveTask writes the task to the live table. The table is in-memory,
// so a write failure is logged rather than failing the run.
func (s *ReviewService) saveTask(ctx context.Context, task *domain.ReviewTask) {
	if err := s.tasks.Save(ctx, task); err != nil {
		logger.Warn("Saving review task %s: %v", task.ReviewID, err)
	}
}

// archiveTask persists a terminal task when an archive is configured.
func (s *ReviewService) archiveTask(ctx context.Context, task *domain.ReviewTask) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, task); err != nil {
		logger.Warn("Archiving review task %s: %v", task.ReviewID, err)
	}
}

// setDocumentStatus updates the document lifecycle state around a run.
func (s *ReviewService) setDocumentStatus(ctx context.Context, docID string, status domain.DocumentStatus, message string) {
	doc, err := s.docStore.GetDocument(ctx, docID)
	if err != nil {
		logger.Warn("Loading document %s for status update: %v", docID, err)
		return
	}
	doc.Status = status
	doc.StatusMessage = message
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Updating document %s status: %v", docID, err)
	}
}

// ruleFailure builds the FAILED result recorded for a rule whose
// review could not produce a verdict.
func ruleFailure(rule domain.Rule, reason, detail string) domain.ReviewResult {
	return domain.ReviewResult{
		RuleID:   rule.RuleID,
		RuleName: rule.Name,
		Status:   domain.ResultFailed,
		Reason:   reason,
		Error:    detail,
	}
}

// matchesAnyTag reports whether any retrieval tag occurs in the clause
// hint.
func matchesAnyTag(clauseHint string, tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(clauseHint, tag) {
			return true
		}
	}
	return false
}

// ruleIDsOf projects rules to their identifiers.
func ruleIDsOf(rules []domain.Rule) []string {
	ids := make([]string, len(rules))
	for i, rule := range rules {
		ids[i] = rule.RuleID
	}
	return ids
}

// randomHex returns n random bytes as lowercase hex.
func randomHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:n])
}

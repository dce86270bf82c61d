package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Ensure ExplainService implements the interface.
var _ driving.ExplainService = (*ExplainService)(nil)

// Question classes the answerer recognises.
var (
	whyMarkers    = []string{"为什么", "为何"}
	whereMarkers  = []string{"哪里", "哪条", "第几"}
	adviceMarkers = []string{"如何", "怎么", "建议"}
)

// ExplainService answers follow-up questions about review results.
// Answers are derived from the stored verdict and its evidence rather
// than from a fresh model call, so explanations never drift from what
// the review actually saw.
type ExplainService struct {
	sessions driven.SessionStore
	reviews  driven.ReviewStore
	rules    driven.RuleStore
}

// NewExplainService creates a new explain service.
func NewExplainService(sessions driven.SessionStore, reviews driven.ReviewStore, rules driven.RuleStore) *ExplainService {
	return &ExplainService{
		sessions: sessions,
		reviews:  reviews,
		rules:    rules,
	}
}

// StartSession opens a question session for one rule result within a
// review. The review and the rule's result must both exist.
func (s *ExplainService) StartSession(ctx context.Context, reviewID, ruleID string) (*domain.ExplainSession, error) {
	task, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("loading review: %w", err)
	}
	if _, err := findResult(task, ruleID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.ExplainSession{
		SessionID:   "session_" + randomHex(6),
		ReviewID:    reviewID,
		RuleID:      ruleID,
		Messages:    []domain.ExplainMessage{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	logger.Debug("Started explain session %s for %s / %s", session.SessionID, reviewID, ruleID)
	return session, nil
}

// Ask answers a question within a session and appends both turns to the
// transcript. The assistant turn stores the serialised explanation.
func (s *ExplainService) Ask(ctx context.Context, sessionID, question string) (*domain.Explanation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	task, err := s.reviews.Get(ctx, session.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("loading review: %w", err)
	}
	result, err := findResult(task, session.RuleID)
	if err != nil {
		return nil, err
	}
	rule, err := s.rules.Get(ctx, session.RuleID)
	if err != nil {
		return nil, fmt.Errorf("loading rule: %w", err)
	}

	now := time.Now()
	session.Messages = append(session.Messages, domain.ExplainMessage{
		MessageID: "msg_" + randomHex(4),
		Role:      "user",
		Content:   question,
		Timestamp: now,
	})

	explanation := deriveExplanation(rule, result, question)
	explanation.SessionID = sessionID
	explanation.MessageID = "msg_" + randomHex(4)
	explanation.Timestamp = now

	content, err := json.Marshal(explanation)
	if err != nil {
		return nil, fmt.Errorf("encoding explanation: %w", err)
	}
	session.Messages = append(session.Messages, domain.ExplainMessage{
		MessageID: explanation.MessageID,
		Role:      "assistant",
		Content:   string(content),
		Timestamp: now,
	})
	session.LastUpdated = now

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	logger.Debug("Answered question in session %s (confidence %s)", sessionID, explanation.Confidence)
	return explanation, nil
}

// GetSession retrieves a session with its transcript.
func (s *ExplainService) GetSession(ctx context.Context, sessionID string) (*domain.ExplainSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ListSessions returns sessions most recently updated first.
func (s *ExplainService) ListSessions(ctx context.Context) ([]domain.ExplainSession, error) {
	return s.sessions.List(ctx)
}

// DeleteSession removes a session and its transcript.
func (s *ExplainService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// deriveExplanation builds the answer for one question from the rule,
// the verdict and its evidence. The question is classified by marker
// words: why questions restate the verdict, where questions cite pages,
// how questions turn the rule intent into advice.
func deriveExplanation(rule *domain.Rule, result *domain.ReviewResult, question string) *domain.Explanation {
	refs := evidenceRefs(result.Evidence)

	var answer, reasoning string
	switch {
	case containsAny(question, whyMarkers):
		switch result.Status {
		case domain.ResultPass:
			answer = fmt.Sprintf("该合同通过了「%s」规则的审查。%s", rule.Name, rule.Intent)
		case domain.ResultRisk:
			answer = fmt.Sprintf("该合同在「%s」方面存在风险。%s", rule.Name, result.Reason)
		default:
			answer = fmt.Sprintf("该合同缺少「%s」相关条款。%s", rule.Name, result.Reason)
		}
		reasoning = fmt.Sprintf("根据规则要求「%s」检查合同内容。", rule.Intent)

	case containsAny(question, whereMarkers):
		if pages := citedPages(refs); len(pages) > 0 {
			answer = fmt.Sprintf("相关条款位于合同第 %s 页。", joinPages(pages))
		} else if len(refs) > 0 {
			answer = "相关条款的位置信息请参考下方证据引用。"
		} else {
			answer = "根据现有证据，未找到明确的相关条款位置。"
		}
		reasoning = "根据证据中的页码信息定位。"

	case containsAny(question, adviceMarkers):
		switch result.Status {
		case domain.ResultRisk:
			answer = fmt.Sprintf("建议修改合同以符合规则要求：%s。", rule.Intent)
		case domain.ResultMissing:
			answer = fmt.Sprintf("建议在合同中补充相关条款：%s。", rule.Intent)
		default:
			answer = "合同已符合规则要求，无需修改。"
		}
		reasoning = fmt.Sprintf("基于规则「%s」给出建议。", rule.Intent)

	default:
		answer = fmt.Sprintf("关于「%s」，审核结论为%s。%s", rule.Name, result.Status, result.Reason)
		reasoning = fmt.Sprintf("根据规则「%s」进行审核。", rule.Intent)
	}

	explanation := &domain.Explanation{
		Answer:       answer,
		Reasoning:    reasoning,
		EvidenceRefs: refs,
		Confidence:   "medium",
	}
	if len(refs) > 0 {
		explanation.Confidence = "high"
	} else {
		explanation.Limitations = []string{"证据可能不完整"}
	}
	return explanation
}

// evidenceRefs projects stored evidence into citation form. Quotes with
// a page anchor are marked directly relevant.
func evidenceRefs(evidence []domain.Evidence) []domain.EvidenceRef {
	refs := make([]domain.EvidenceRef, 0, len(evidence))
	for _, ev := range evidence {
		relevance := "参考信息"
		if ev.Page > 0 {
			relevance = "直接相关"
		}
		refs = append(refs, domain.EvidenceRef{
			ChunkID:   ev.ChunkID,
			Quote:     ev.Text,
			Page:      ev.Page,
			Relevance: relevance,
		})
	}
	return refs
}

// citedPages returns the distinct pages cited, ascending. Quotes
// without a page anchor are skipped.
func citedPages(refs []domain.EvidenceRef) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, ref := range refs {
		if ref.Page > 0 && !seen[ref.Page] {
			seen[ref.Page] = true
			pages = append(pages, ref.Page)
		}
	}
	sort.Ints(pages)
	return pages
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = strconv.Itoa(page)
	}
	return strings.Join(parts, ", ")
}

// findResult locates a rule's verdict within a task.
func findResult(task *domain.ReviewTask, ruleID string) (*domain.ReviewResult, error) {
	for i := range task.Results {
		if task.Results[i].RuleID == ruleID {
			return &task.Results[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no result for rule %s in review %s", domain.ErrNotFound, ruleID, task.ReviewID)
}

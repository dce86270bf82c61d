package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// PromptAssembler renders review prompts from a rule and its retrieved
// contract passages. Templates come from the prompt store so users can
// edit them on disk; only the named slots are substituted, which keeps
// the JSON example braces in the template intact.
type PromptAssembler struct {
	prompts driven.PromptStore
}

// NewPromptAssembler creates a prompt assembler over the given store.
func NewPromptAssembler(prompts driven.PromptStore) *PromptAssembler {
	return &PromptAssembler{prompts: prompts}
}

// BuildReviewPrompt fills the review template's slots for one rule and
// its candidate passages.
func (a *PromptAssembler) BuildReviewPrompt(rule domain.Rule, hits []domain.VectorHit) (string, error) {
	template, err := a.prompts.Load(driven.PromptReview)
	if err != nil {
		return "", fmt.Errorf("loading review template: %w", err)
	}

	replacer := strings.NewReplacer(
		"{rule_id}", rule.RuleID,
		"{rule_name}", rule.Name,
		"{category}", rule.Category,
		"{rule_type}", rule.Type.String(),
		"{risk_level}", rule.RiskLevel.String(),
		"{intent}", rule.Intent,
		"{params_formatted}", formatRuleParams(rule.Params),
		"{chunks_formatted}", formatCandidateChunks(hits),
	)
	return replacer.Replace(template), nil
}

// SystemPrompt returns the system message sent with every review
// completion.
func (a *PromptAssembler) SystemPrompt() (string, error) {
	prompt, err := a.prompts.Load(driven.PromptReviewSystem)
	if err != nil {
		return "", fmt.Errorf("loading system prompt: %w", err)
	}
	return prompt, nil
}

// formatRuleParams renders rule params one per line in sorted key
// order. Strings are quoted; lists are comma-joined.
func formatRuleParams(params map[string]any) string {
	if len(params) == 0 {
		return "  （无参数）"
	}

	lines := make([]string, 0, len(params))
	for _, key := range sortedParamKeys(params) {
		lines = append(lines, "  - "+key+": "+formatParamValue(params[key]))
	}
	return strings.Join(lines, "\n")
}

// formatParamValue renders one param value for the prompt.
func formatParamValue(value any) string {
	switch v := value.(type) {
	case string:
		return `"` + v + `"`
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatCandidateChunks renders retrieved passages as numbered
// sections the model can cite by chunk ID and page.
func formatCandidateChunks(hits []domain.VectorHit) string {
	if len(hits) == 0 {
		return "（未提供候选原文）"
	}

	sections := make([]string, 0, len(hits))
	for i, hit := range hits {
		sections = append(sections, fmt.Sprintf(
			"\n--- 片段 %d ---\nChunk ID: %s\n页码: 第 %d 页\n原文:\n  %s",
			i+1, hit.ChunkID, hit.Page, hit.Text))
	}
	return strings.Join(sections, "\n")
}

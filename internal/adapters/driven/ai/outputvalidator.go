package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure OutputValidator implements the interface.
var _ driven.ReviewOutputValidator = (*OutputValidator)(nil)

// defaultConfidence applies when the model omits the confidence field.
const defaultConfidence = 0.8

// reviewOutputSchema constrains the JSON a review completion must return
// before it is accepted as a verdict.
var reviewOutputSchema = map[string]any{
	"type":     "object",
	"required": []string{"rule_id", "status", "reason"},
	"properties": map[string]any{
		"rule_id":   map[string]any{"type": "string", "minLength": 1},
		"rule_name": map[string]any{"type": "string"},
		"status":    map[string]any{"type": "string", "enum": []string{"PASS", "RISK", "MISSING"}},
		"reason":    map[string]any{"type": "string", "minLength": 1},
		"evidence": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"chunk_id", "page", "text"},
				"properties": map[string]any{
					"chunk_id": map[string]any{"type": "string"},
					"page":     map[string]any{"type": "integer"},
					"text":     map[string]any{"type": "string"},
				},
			},
		},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"suggestion": map[string]any{"type": "string"},
	},
}

// reviewOutput mirrors the JSON shape the review prompt asks for.
type reviewOutput struct {
	RuleID     string           `json:"rule_id"`
	RuleName   string           `json:"rule_name"`
	Status     string           `json:"status"`
	Reason     string           `json:"reason"`
	Evidence   []evidenceOutput `json:"evidence"`
	Confidence *float64         `json:"confidence"`
	Suggestion string           `json:"suggestion"`
}

type evidenceOutput struct {
	ChunkID string `json:"chunk_id"`
	Page    int    `json:"page"`
	Text    string `json:"text"`
}

// OutputValidator checks raw model output against the review verdict
// schema and converts it into a domain result.
type OutputValidator struct {
	schema *gojsonschema.Schema
}

// NewOutputValidator compiles the review output schema.
func NewOutputValidator() (*OutputValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(reviewOutputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile review output schema: %w", err)
	}
	return &OutputValidator{schema: schema}, nil
}

// Validate parses one model completion into a review result. Markdown
// code fences around the JSON are tolerated since models add them even
// when asked not to. A MISSING verdict has its evidence dropped, cited
// passages for an absent clause are contradictory.
func (v *OutputValidator) Validate(raw string) (*domain.ReviewResult, error) {
	doc := stripCodeFence(raw)
	if doc == "" {
		return nil, fmt.Errorf("empty model output")
	}

	result, err := v.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("model output rejected: %s", strings.Join(details, "; "))
	}

	var out reviewOutput
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	review := &domain.ReviewResult{
		RuleID:     out.RuleID,
		RuleName:   out.RuleName,
		Status:     domain.ResultStatus(out.Status),
		Reason:     out.Reason,
		Confidence: defaultConfidence,
		Suggestion: out.Suggestion,
	}
	if out.Confidence != nil {
		review.Confidence = *out.Confidence
	}

	if review.Status != domain.ResultMissing {
		for _, ev := range out.Evidence {
			review.Evidence = append(review.Evidence, domain.Evidence{
				ChunkID: ev.ChunkID,
				Page:    ev.Page,
				Text:    ev.Text,
			})
		}
	}

	return review, nil
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

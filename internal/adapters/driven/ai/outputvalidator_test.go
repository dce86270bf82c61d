package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

const validOutput = `{
  "rule_id": "payment_cycle_max_30",
  "rule_name": "付款周期限制",
  "status": "RISK",
  "reason": "付款周期为45天，超过30天限制",
  "evidence": [
    {"chunk_id": "doc2_p1_c0", "page": 1, "text": "付款周期为收到发票后45日内完成付款。"}
  ],
  "confidence": 0.95,
  "suggestion": "建议将付款周期修改为30天以内"
}`

func TestOutputValidator_Validate(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	result, err := v.Validate(validOutput)
	require.NoError(t, err)

	assert.Equal(t, "payment_cycle_max_30", result.RuleID)
	assert.Equal(t, "付款周期限制", result.RuleName)
	assert.Equal(t, domain.ResultRisk, result.Status)
	assert.Equal(t, "付款周期为45天，超过30天限制", result.Reason)
	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "doc2_p1_c0", result.Evidence[0].ChunkID)
	assert.Equal(t, 1, result.Evidence[0].Page)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Equal(t, "建议将付款周期修改为30天以内", result.Suggestion)
}

func TestOutputValidator_Validate_StripsCodeFences(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "json fence", raw: "```json\n" + validOutput + "\n```"},
		{name: "bare fence", raw: "```\n" + validOutput + "\n```"},
		{name: "leading whitespace", raw: "\n\n  " + validOutput + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, domain.ResultRisk, result.Status)
		})
	}
}

func TestOutputValidator_Validate_DefaultConfidence(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	result, err := v.Validate(`{"rule_id": "r1", "status": "PASS", "reason": "ok"}`)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestOutputValidator_Validate_MissingVerdictDropsEvidence(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	result, err := v.Validate(`{
		"rule_id": "r1",
		"status": "MISSING",
		"reason": "未找到相关条款",
		"evidence": [{"chunk_id": "c1", "page": 2, "text": "无关内容"}]
	}`)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultMissing, result.Status)
	assert.Empty(t, result.Evidence)
}

func TestOutputValidator_Validate_Rejections(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty output", raw: ""},
		{name: "not json", raw: "抱歉，我无法完成该审核。"},
		{name: "missing rule_id", raw: `{"status": "PASS", "reason": "ok"}`},
		{name: "missing reason", raw: `{"rule_id": "r1", "status": "PASS"}`},
		{name: "unknown status", raw: `{"rule_id": "r1", "status": "MAYBE", "reason": "ok"}`},
		{name: "failed is not a model verdict", raw: `{"rule_id": "r1", "status": "FAILED", "reason": "ok"}`},
		{name: "confidence above one", raw: `{"rule_id": "r1", "status": "PASS", "reason": "ok", "confidence": 1.5}`},
		{name: "negative confidence", raw: `{"rule_id": "r1", "status": "PASS", "reason": "ok", "confidence": -0.1}`},
		{
			name: "evidence item without chunk_id",
			raw:  `{"rule_id": "r1", "status": "RISK", "reason": "bad", "evidence": [{"page": 1, "text": "x"}]}`,
		},
		{
			name: "fractional page number",
			raw:  `{"rule_id": "r1", "status": "RISK", "reason": "bad", "evidence": [{"chunk_id": "c1", "page": 1.5, "text": "x"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.raw)
			assert.Error(t, err)
		})
	}
}

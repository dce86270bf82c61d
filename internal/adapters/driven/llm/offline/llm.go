// Package offline provides a canned LLM service for air-gapped runs.
//
// The service answers every completion with one of three fixed review
// verdicts chosen by inspecting the prompt text. It exists so the full
// review pipeline, from retrieval through output validation, works
// without network access or API keys. Verdicts are only meaningful for
// the bundled payment-cycle demo rule; any other prompt gets the
// MISSING verdict.
package offline

import (
	"context"
	"strings"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// ModelName is the fixed model identifier reported by the service.
const ModelName = "offline-reviewer"

const passResponse = `{
  "rule_id": "payment_cycle_max_30",
  "rule_name": "付款周期限制",
  "status": "PASS",
  "reason": "合同约定承租方在每月5日前支付租金，符合30天内付款的要求",
  "evidence": [
    {
      "chunk_id": "doc1_p1_c0",
      "page": 1,
      "text": "承租方应在每月5日前支付当月租金。"
    }
  ],
  "confidence": 0.9
}`

const riskResponse = `{
  "rule_id": "payment_cycle_max_30",
  "rule_name": "付款周期限制",
  "status": "RISK",
  "reason": "付款周期为45天，超过30天限制",
  "evidence": [
    {
      "chunk_id": "doc2_p1_c0",
      "page": 1,
      "text": "付款周期为收到发票后45日内完成付款。"
    }
  ],
  "confidence": 0.95,
  "suggestion": "建议将付款周期修改为30天以内"
}`

const missingResponse = `{
  "rule_id": "payment_cycle_max_30",
  "rule_name": "付款周期限制",
  "status": "MISSING",
  "reason": "合同中未找到付款周期相关条款",
  "evidence": [],
  "confidence": 0.8
}`

// LLMService returns canned review verdicts without any network access.
type LLMService struct{}

// NewLLMService creates an offline LLM service.
func NewLLMService() *LLMService {
	return &LLMService{}
}

// Complete picks a canned verdict from the prompt text. A prompt that
// mentions a 30-day cycle with no 45-day figure passes, a 45-day figure
// is flagged as a risk, and everything else reports a missing clause.
func (s *LLMService) Complete(_ context.Context, _, userPrompt string, _ driven.CompleteOptions) (string, error) {
	switch {
	case strings.Contains(userPrompt, "30天") && !strings.Contains(userPrompt, "45"):
		return passResponse, nil
	case strings.Contains(userPrompt, "45"):
		return riskResponse, nil
	default:
		return missingResponse, nil
	}
}

// ModelName returns the fixed offline model identifier.
func (s *LLMService) ModelName() string {
	return ModelName
}

// Ping always succeeds; there is nothing to reach.
func (s *LLMService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

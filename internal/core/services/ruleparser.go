package services

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// The rule parser turns one natural-language requirement into a
// structured rule using a fixed pattern bank. Parsing is deterministic:
// the same text always yields the same rule, including the fallback ID.

var (
	// daysPattern extracts a day count ("30 天", "15日").
	daysPattern = regexp.MustCompile(`(\d+)\s*[天日]`)

	// percentPattern extracts a percentage ("5%", "0.5 ％").
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[%％]`)

	// hanWordPattern extracts runs of Han characters for the fallback
	// keyword rule.
	hanWordPattern = regexp.MustCompile(`\p{Han}+`)
)

// obligationMarkers signal a mandatory clause (必须包含 / 应提交 / 需约定).
var obligationMarkers = []string{"必须", "应", "需"}

// prohibitionMarkers signal a forbidden clause.
var prohibitionMarkers = []string{"不得", "禁止", "不允许"}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// rulePattern tries to derive a rule from the text, returning nil when
// the text does not match. Patterns are tried in bank order; an inner
// detail failing to match (a day count without digits, say) falls
// through to the next pattern.
type rulePattern func(text string) *domain.Rule

// rulePatternBank lists the recognised requirement shapes, most
// specific first. The order is part of the parsing contract.
var rulePatternBank = []rulePattern{
	parsePaymentCycle,
	parseConfidentiality,
	parsePenaltyRate,
	parseAutoRenewal,
	parseGoverningLaw,
	parseForceMajeure,
	parseDeliveryWindow,
	parseArbitration,
}

// parseRuleText derives a rule from one requirement. Unrecognised text
// degrades to a keyword rule over its Han words.
func parseRuleText(text string) *domain.Rule {
	for _, match := range rulePatternBank {
		if rule := match(text); rule != nil {
			return rule
		}
	}
	return parseFallback(text)
}

func parsePaymentCycle(text string) *domain.Rule {
	if !strings.Contains(text, "付款周期") && !strings.Contains(text, "付款期限") {
		return nil
	}
	days, ok := extractDays(text)
	if !ok {
		return nil
	}

	riskLevel := domain.RiskHigh
	if days > 30 {
		riskLevel = domain.RiskMedium
	}
	return &domain.Rule{
		RuleID:   fmt.Sprintf("payment_cycle_max_%d", days),
		Name:     "付款周期限制",
		Category: "Payment",
		Intent:   text,
		Type:     domain.RuleNumericConstraint,
		Params: map[string]any{
			"field":    "payment_cycle",
			"operator": "<=",
			"value":    days,
			"unit":     "days",
		},
		RiskLevel:        riskLevel,
		RetrievalTags:    []string{"payment", "cycle", "settlement"},
		PromptTemplateID: "numeric_constraint_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseConfidentiality(text string) *domain.Rule {
	if !strings.Contains(text, "保密") || !containsAny(text, obligationMarkers) {
		return nil
	}
	return &domain.Rule{
		RuleID:   "confidentiality_clause_required",
		Name:     "保密条款要求",
		Category: "Confidentiality",
		Intent:   text,
		Type:     domain.RuleRequirement,
		Params: map[string]any{
			"required_clauses": []any{
				map[string]any{
					"clause_type":        "confidentiality",
					"min_content_length": 50,
				},
			},
		},
		RiskLevel:        domain.RiskHigh,
		RetrievalTags:    []string{"confidentiality", "secret", "protection"},
		PromptTemplateID: "requirement_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parsePenaltyRate(text string) *domain.Rule {
	if !strings.Contains(text, "违约金") && !strings.Contains(text, "罚金") {
		return nil
	}
	match := percentPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	rate, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}

	riskLevel := domain.RiskHigh
	if rate > 5 {
		riskLevel = domain.RiskMedium
	}
	return &domain.Rule{
		RuleID:   fmt.Sprintf("penalty_rate_max_%d_percent", int(rate)),
		Name:     "违约金上限限制",
		Category: "Payment",
		Intent:   text,
		Type:     domain.RuleNumericConstraint,
		Params: map[string]any{
			"field":    "penalty_rate",
			"operator": "<=",
			"value":    rate,
			"unit":     "percent",
		},
		RiskLevel:        riskLevel,
		RetrievalTags:    []string{"payment", "penalty", "breach"},
		PromptTemplateID: "numeric_constraint_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseAutoRenewal(text string) *domain.Rule {
	if !strings.Contains(text, "自动续约") && !strings.Contains(text, "自动延期") {
		return nil
	}
	if !containsAny(text, prohibitionMarkers) {
		return nil
	}
	return &domain.Rule{
		RuleID:   "no_auto_renewal",
		Name:     "禁止自动续约",
		Category: "Termination",
		Intent:   text,
		Type:     domain.RuleProhibition,
		Params: map[string]any{
			"prohibited_patterns": []any{"自动续约", "自动延期", "auto-renew", "automatically renew"},
			"scope":               "entire",
		},
		RiskLevel:        domain.RiskHigh,
		RetrievalTags:    []string{"termination", "renewal", "expiration"},
		PromptTemplateID: "prohibition_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseGoverningLaw(text string) *domain.Rule {
	if !strings.Contains(text, "管辖法律") && !strings.Contains(text, "适用法律") {
		return nil
	}
	keywords := []any{"管辖法律", "适用法律", "法律"}
	if strings.Contains(text, "中华人民共和国") || strings.Contains(text, "中国") {
		keywords = []any{"中华人民共和国法律", "适用法律", "管辖法律"}
	}
	return &domain.Rule{
		RuleID:   "governing_law_specified",
		Name:     "管辖法律要求",
		Category: "Governing_Law",
		Intent:   text,
		Type:     domain.RuleTextContains,
		Params: map[string]any{
			"keywords":       keywords,
			"match_mode":     "any",
			"case_sensitive": false,
		},
		RiskLevel:        domain.RiskCritical,
		RetrievalTags:    []string{"governing_law", "jurisdiction", "legal"},
		PromptTemplateID: "text_contains_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseForceMajeure(text string) *domain.Rule {
	if !strings.Contains(text, "不可抗力") || !containsAny(text, obligationMarkers) {
		return nil
	}
	return &domain.Rule{
		RuleID:   "force_majeure_clause_required",
		Name:     "不可抗力条款要求",
		Category: "Force_Majeure",
		Intent:   text,
		Type:     domain.RuleRequirement,
		Params: map[string]any{
			"required_clauses": []any{
				map[string]any{
					"clause_type":        "force_majeure",
					"min_content_length": 50,
				},
			},
		},
		RiskLevel:        domain.RiskMedium,
		RetrievalTags:    []string{"force_majeure", "emergency", "exemption"},
		PromptTemplateID: "requirement_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseDeliveryWindow(text string) *domain.Rule {
	if !strings.Contains(text, "交付") {
		return nil
	}
	if !strings.Contains(text, "天") && !strings.Contains(text, "日") {
		return nil
	}
	days, ok := extractDays(text)
	if !ok {
		return nil
	}
	return &domain.Rule{
		RuleID:   fmt.Sprintf("delivery_within_%d_days", days),
		Name:     "交付周期限制",
		Category: "Delivery",
		Intent:   text,
		Type:     domain.RuleNumericConstraint,
		Params: map[string]any{
			"field":    "delivery_days",
			"operator": "<=",
			"value":    days,
			"unit":     "days",
		},
		RiskLevel:        domain.RiskMedium,
		RetrievalTags:    []string{"delivery", "shipping", "timeline"},
		PromptTemplateID: "numeric_constraint_v1",
		Version:          1,
		Enabled:          true,
	}
}

func parseArbitration(text string) *domain.Rule {
	if !strings.Contains(text, "仲裁") || !containsAny(text, obligationMarkers) {
		return nil
	}
	return &domain.Rule{
		RuleID:   "dispute_arbitration_required",
		Name:     "争议仲裁条款要求",
		Category: "Dispute_Resolution",
		Intent:   text,
		Type:     domain.RuleRequirement,
		Params: map[string]any{
			"required_clauses": []any{
				map[string]any{
					"clause_type":        "arbitration",
					"min_content_length": 30,
				},
			},
		},
		RiskLevel:        domain.RiskMedium,
		RetrievalTags:    []string{"dispute", "arbitration", "resolution"},
		PromptTemplateID: "requirement_v1",
		Version:          1,
		Enabled:          true,
	}
}

// parseFallback builds a keyword rule over the text's Han words. The
// rule ID carries an FNV hash of the text so the same requirement
// always maps to the same ID across processes.
func parseFallback(text string) *domain.Rule {
	words := hanWordPattern.FindAllString(text, -1)
	if len(words) > 5 {
		words = words[:5]
	}

	keywords := make([]any, len(words))
	for i, word := range words {
		keywords[i] = word
	}
	tags := words
	if len(tags) > 3 {
		tags = tags[:3]
	}

	return &domain.Rule{
		RuleID:   fmt.Sprintf("custom_rule_%d", textHash(text)%10000),
		Name:     "自定义规则",
		Category: "Other",
		Intent:   text,
		Type:     domain.RuleTextContains,
		Params: map[string]any{
			"keywords":       keywords,
			"match_mode":     "any",
			"case_sensitive": false,
		},
		RiskLevel:        domain.RiskMedium,
		RetrievalTags:    tags,
		PromptTemplateID: "text_contains_v1",
		Version:          1,
		Enabled:          true,
	}
}

func extractDays(text string) (int, bool) {
	match := daysPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return days, true
}

func textHash(text string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(text)) //nolint:errcheck
	return h.Sum32()
}

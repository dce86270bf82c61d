package chunker

import "strings"

// clauseEntry pairs a clause type with the keywords that signal it.
type clauseEntry struct {
	clauseType string
	keywords   []string
}

// clauseKeywords maps clause types to their signal keywords, in priority
// order: when two types match the same number of keywords, the one listed
// first wins, so hints stay stable across runs. Keywords are lowercase.
var clauseKeywords = []clauseEntry{
	{"payment", []string{"付款", "支付", "结算", "费用", "金额", "价款", "租金", "payment", "pay"}},
	{"liability", []string{"责任", "义务", "承担", "赔偿", "损失", "liability", "responsibility"}},
	{"confidentiality", []string{"保密", "机密", "秘密", "泄露", "confidential", "secret"}},
	{"termination", []string{"终止", "解除", "到期", "期满", "termination", "end", "expire"}},
	{"intellectual_property", []string{"知识产权", "专利", "商标", "著作权", "版权", "intellectual", "property", "patent", "copyright"}},
	{"dispute_resolution", []string{"争议", "纠纷", "仲裁", "诉讼", "dispute", "arbitration", "litigation"}},
	{"force_majeure", []string{"不可抗力", "天灾", "force", "majeure"}},
	{"governing_law", []string{"法律", "管辖", "适用法律", "governing", "law", "jurisdiction"}},
	{"delivery", []string{"交付", "运送", "发货", "delivery", "ship"}},
	{"quality", []string{"质量", "标准", "规格", "quality", "standard"}},
	{"warranty", []string{"质保", "保修", "保证", "warranty", "guarantee"}},
	{"indemnification", []string{"补偿", "赔付", "indemnif"}},
	{"limitation_of_liability", []string{"责任限制", "免责", "limitation"}},
	{"amendment", []string{"修改", "修订", "变更", "amendment", "modify"}},
	{"severability", []string{"可分割", "独立性", "severability"}},
	{"entire_agreement", []string{"完整协议", "全部协议", "取代", "entire", "agreement"}},
	{"assignment", []string{"转让", "让与", "assignment"}},
	{"notices", []string{"通知", "告知", "notice"}},
}

// ClauseUnknown is the hint assigned when no clause keywords match.
const ClauseUnknown = "unknown"

// IdentifyClause returns the clause type whose keywords appear most often
// in text, or ClauseUnknown when nothing matches. Each keyword counts at
// most once; matching is a case-insensitive substring test.
func IdentifyClause(text string) string {
	lower := strings.ToLower(text)

	best := ClauseUnknown
	bestScore := 0

	for _, entry := range clauseKeywords {
		score := 0
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = entry.clauseType
			bestScore = score
		}
	}

	return best
}

// ClauseTypes returns the known clause types in priority order.
func ClauseTypes() []string {
	types := make([]string, len(clauseKeywords))
	for i, entry := range clauseKeywords {
		types[i] = entry.clauseType
	}
	return types
}

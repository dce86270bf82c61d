package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Query builder tuning defaults. Retrieval quality degrades with too
// many low-weight queries per rule, so the cap is deliberately small.
const (
	defaultMaxQueriesPerRule = 3
	defaultMinKeywordLength  = 2
	defaultMaxQueryLength    = 100
)

// combinedQueryMaxKeywords caps the merged cross-rule query.
const combinedQueryMaxKeywords = 10

// queryStopWords are dropped during keyword extraction. Contract text
// is predominantly Chinese with occasional English boilerplate.
var queryStopWords = map[string]struct{}{
	"的": {}, "了": {}, "是": {}, "在": {}, "和": {}, "与": {},
	"或": {}, "但": {}, "而": {}, "等": {}, "应": {}, "需": {},
	"要": {}, "可以": {}, "能够": {}, "应该": {}, "必须": {},
	"this": {}, "that": {}, "the": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {}, "shall": {}, "should": {},
	"must": {}, "may": {}, "can": {}, "will": {},
}

// keywordPattern matches runs of word characters or CJK ideographs.
var keywordPattern = regexp.MustCompile(`[\w\p{Han}]+`)

// ruleTypeTemplates are last-resort phrasings per rule type. Slots are
// filled from rule params; templates with unfilled slots are dropped.
var ruleTypeTemplates = map[domain.RuleType][]string{
	domain.RuleNumericConstraint: {
		"{参数名称} {数值}",
		"{参数名称} 不超过 {数值}",
		"{参数名称} 少于 {数值}",
		"{参数名称} 超过 {数值}",
	},
	domain.RuleTextContains: {
		"{关键词}",
		"包含 {关键词}",
		"约定 {关键词}",
		"规定 {关键词}",
	},
	domain.RuleProhibition: {
		"禁止 {行为}",
		"不得 {行为}",
		"不允许 {行为}",
		"不能 {行为}",
	},
	domain.RuleRequirement: {
		"{义务}",
		"应当 {义务}",
		"必须 {义务}",
		"有义务 {义务}",
	},
}

// QueryBuilder translates structured rules into weighted retrieval
// queries. Each rule yields up to maxQueriesPerRule queries drawn from
// three strategies in fixed precedence: the rule's intent, its params,
// and its type templates. An optional merged query spans all rules.
type QueryBuilder struct {
	maxQueriesPerRule int
	minKeywordLength  int
	maxQueryLength    int
}

// QueryBuilderOption configures a QueryBuilder.
type QueryBuilderOption func(*QueryBuilder)

// WithMaxQueriesPerRule overrides the per-rule query cap.
func WithMaxQueriesPerRule(n int) QueryBuilderOption {
	return func(b *QueryBuilder) {
		if n > 0 {
			b.maxQueriesPerRule = n
		}
	}
}

// WithMinKeywordLength overrides the minimum keyword rune length.
func WithMinKeywordLength(n int) QueryBuilderOption {
	return func(b *QueryBuilder) {
		if n > 0 {
			b.minKeywordLength = n
		}
	}
}

// WithMaxQueryLength overrides the query text rune cap.
func WithMaxQueryLength(n int) QueryBuilderOption {
	return func(b *QueryBuilder) {
		if n > 0 {
			b.maxQueryLength = n
		}
	}
}

// NewQueryBuilder creates a query builder with the given options.
func NewQueryBuilder(opts ...QueryBuilderOption) *QueryBuilder {
	b := &QueryBuilder{
		maxQueriesPerRule: defaultMaxQueriesPerRule,
		minKeywordLength:  defaultMinKeywordLength,
		maxQueryLength:    defaultMaxQueryLength,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildQueries derives retrieval queries for a batch of rules. With
// combineRules set and at least two rules present, a merged cross-rule
// query is appended after the per-rule queries.
func (b *QueryBuilder) BuildQueries(rules []domain.Rule, combineRules bool) domain.QueryBuildResult {
	var queries []domain.SearchQuery
	uniqueKeywords := make(map[string]struct{})
	uniqueTags := make(map[string]struct{})

	for _, rule := range rules {
		ruleQueries := b.BuildForRule(rule)
		queries = append(queries, ruleQueries...)
		for _, query := range ruleQueries {
			for _, keyword := range query.Keywords {
				uniqueKeywords[keyword] = struct{}{}
			}
			for tag := range query.Tags {
				uniqueTags[tag] = struct{}{}
			}
		}
	}

	if combineRules && len(rules) > 1 {
		if merged := b.combinedQuery(rules); merged != nil {
			queries = append(queries, *merged)
		}
	}

	logger.Debug("Built %d queries from %d rules (%d keywords, %d tags)",
		len(queries), len(rules), len(uniqueKeywords), len(uniqueTags))

	return domain.QueryBuildResult{
		Queries:        queries,
		RulesCount:     len(rules),
		UniqueKeywords: len(uniqueKeywords),
		UniqueTags:     len(uniqueTags),
	}
}

// BuildForRule derives this rule's queries: intent first, then params,
// then templates, truncated to the per-rule cap.
func (b *QueryBuilder) BuildForRule(rule domain.Rule) []domain.SearchQuery {
	queries := b.intentQueries(rule)
	queries = append(queries, b.paramQueries(rule)...)
	queries = append(queries, b.templateQueries(rule)...)
	if len(queries) > b.maxQueriesPerRule {
		queries = queries[:b.maxQueriesPerRule]
	}
	return queries
}

// intentQueries yields a full-weight semantic query over the rule's
// intent, plus a keyword query when the intent has extractable terms.
func (b *QueryBuilder) intentQueries(rule domain.Rule) []domain.SearchQuery {
	if rule.Intent == "" {
		return nil
	}

	text := rule.Intent
	// Very short intents lack the verb that anchors retrieval; restore
	// it from the rule type.
	if utf8.RuneCountInString(text) < 10 {
		switch rule.Type {
		case domain.RuleProhibition:
			text = "禁止" + text
		case domain.RuleRequirement:
			text = "应当" + text
		}
	}

	keywords := b.ExtractKeywords(rule.Intent)
	queries := []domain.SearchQuery{{
		QueryID:   rule.RuleID + "_intent",
		Text:      b.truncate(text),
		Keywords:  keywords,
		Tags:      tagSet(rule.RetrievalTags),
		RuleIDs:   []string{rule.RuleID},
		QueryType: domain.QuerySemantic,
		Weight:    1.0,
	}}

	if len(keywords) > 0 {
		top := keywords
		if len(top) > 5 {
			top = top[:5]
		}
		queries = append(queries, domain.SearchQuery{
			QueryID:   rule.RuleID + "_keywords",
			Text:      b.truncate(strings.Join(top, " ")),
			Keywords:  keywords,
			Tags:      tagSet(rule.RetrievalTags),
			RuleIDs:   []string{rule.RuleID},
			QueryType: domain.QueryKeyword,
			Weight:    0.8,
		})
	}
	return queries
}

// paramQueries yields one keyword query per usable param. Only strings
// and numbers make usable query text; lists and booleans are skipped.
func (b *QueryBuilder) paramQueries(rule domain.Rule) []domain.SearchQuery {
	var queries []domain.SearchQuery
	for _, name := range sortedParamKeys(rule.Params) {
		value, ok := paramQueryText(rule.Params[name])
		if !ok {
			continue
		}

		text := value
		if rule.Type == domain.RuleNumericConstraint {
			switch {
			case strings.Contains(name, "threshold") || strings.Contains(name, "limit"):
				text = value + "以内"
			case strings.Contains(name, "min") || strings.Contains(name, "lower"):
				text = "不少于" + value
			}
		}

		keywords := append(b.ExtractKeywords(value), name)
		queries = append(queries, domain.SearchQuery{
			QueryID:   rule.RuleID + "_param_" + name,
			Text:      b.truncate(text),
			Keywords:  keywords,
			Tags:      tagSet(rule.RetrievalTags),
			RuleIDs:   []string{rule.RuleID},
			QueryType: domain.QueryKeyword,
			Weight:    0.9,
		})
	}
	return queries
}

// templateQueries fills the rule type's phrase templates from params.
// Named slots take string params verbatim; generic slots fall back to
// the first suitable param. Templates left with an unfilled slot are
// dropped rather than searched with placeholder text.
func (b *QueryBuilder) templateQueries(rule domain.Rule) []domain.SearchQuery {
	templates := ruleTypeTemplates[rule.Type]
	if len(templates) == 0 {
		return nil
	}

	keys := sortedParamKeys(rule.Params)
	var queries []domain.SearchQuery
	for _, template := range templates {
		text := template
		for _, name := range keys {
			value, ok := rule.Params[name].(string)
			if !ok {
				continue
			}
			text = strings.ReplaceAll(text, "{"+name+"}", value)
		}

		if strings.Contains(text, "{参数名称}") && len(keys) > 0 {
			text = strings.ReplaceAll(text, "{参数名称}", keys[0])
		}
		if strings.Contains(text, "{数值}") {
			text = strings.ReplaceAll(text, "{数值}", firstNumericParam(rule.Params, keys))
		}
		text = strings.ReplaceAll(text, "{关键词}", firstStringParam(rule.Params, keys, "约定内容"))
		text = strings.ReplaceAll(text, "{行为}", firstStringParam(rule.Params, keys, "相关行为"))
		text = strings.ReplaceAll(text, "{义务}", firstStringParam(rule.Params, keys, "相关义务"))

		if strings.Contains(text, "{") {
			continue
		}

		queries = append(queries, domain.SearchQuery{
			QueryID:   fmt.Sprintf("%s_template_%d", rule.RuleID, len(queries)),
			Text:      b.truncate(text),
			Keywords:  b.ExtractKeywords(text),
			Tags:      tagSet(rule.RetrievalTags),
			RuleIDs:   []string{rule.RuleID},
			QueryType: domain.QueryHybrid,
			Weight:    0.7,
		})
	}
	return queries
}

// combinedQuery merges keywords from every rule's intent and string
// params into one broad query, ranked by how many rules mention each
// keyword. Returns nil when nothing survives extraction.
func (b *QueryBuilder) combinedQuery(rules []domain.Rule) *domain.SearchQuery {
	if len(rules) < 2 {
		return nil
	}

	counts := make(map[string]int)
	var ordered []string
	ruleIDs := make([]string, 0, len(rules))
	tags := make(map[string]struct{})

	collect := func(text string) {
		for _, keyword := range b.ExtractKeywords(text) {
			if counts[keyword] == 0 {
				ordered = append(ordered, keyword)
			}
			counts[keyword]++
		}
	}

	for _, rule := range rules {
		ruleIDs = append(ruleIDs, rule.RuleID)
		collect(rule.Intent)
		for _, name := range sortedParamKeys(rule.Params) {
			if value, ok := rule.Params[name].(string); ok {
				collect(value)
			}
		}
		for _, tag := range rule.RetrievalTags {
			tags[tag] = struct{}{}
		}
	}

	if len(ordered) == 0 {
		return nil
	}

	// Most-mentioned first; first-seen order breaks ties.
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] > counts[ordered[j]]
	})
	if len(ordered) > combinedQueryMaxKeywords {
		ordered = ordered[:combinedQueryMaxKeywords]
	}

	return &domain.SearchQuery{
		QueryID:   fmt.Sprintf("combined_%drules", len(rules)),
		Text:      b.truncate(strings.Join(ordered, " ")),
		Keywords:  ordered,
		Tags:      tags,
		RuleIDs:   ruleIDs,
		QueryType: domain.QueryHybrid,
		Weight:    0.6,
	}
}

// ExtractKeywords tokenises text into deduplicated keywords, dropping
// stop words and tokens shorter than the minimum rune length.
func (b *QueryBuilder) ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range keywordPattern.FindAllString(text, -1) {
		lowered := strings.ToLower(token)
		if utf8.RuneCountInString(lowered) < b.minKeywordLength {
			continue
		}
		if _, stop := queryStopWords[lowered]; stop {
			continue
		}
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		keywords = append(keywords, lowered)
	}
	return keywords
}

// truncate caps text at the configured rune length.
func (b *QueryBuilder) truncate(text string) string {
	if utf8.RuneCountInString(text) <= b.maxQueryLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:b.maxQueryLength])
}

// tagSet converts a tag slice to a set.
func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// sortedParamKeys returns param names in sorted order so query
// derivation is deterministic.
func sortedParamKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// paramQueryText renders a param value as query text. Non-empty
// strings and non-zero numbers qualify; everything else is skipped.
func paramQueryText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case int:
		if v == 0 {
			return "", false
		}
		return strconv.Itoa(v), true
	case int64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatInt(v, 10), true
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// firstNumericParam returns the first numeric param's text, or a
// generic placeholder when the rule has none.
func firstNumericParam(params map[string]any, keys []string) string {
	for _, key := range keys {
		switch params[key].(type) {
		case int, int64, float64:
			text, _ := paramQueryText(params[key])
			if text != "" {
				return text
			}
		}
	}
	return "指定值"
}

// firstStringParam returns the first non-empty string param, or the
// fallback.
func firstStringParam(params map[string]any, keys []string, fallback string) string {
	for _, key := range keys {
		if value, ok := params[key].(string); ok && value != "" {
			return value
		}
	}
	return fallback
}

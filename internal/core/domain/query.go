package domain

// QueryType classifies how a search query should be matched.
type QueryType string

// Available query types.
const (
	// QuerySemantic matches by embedding similarity of the full text.
	QuerySemantic QueryType = "semantic"

	// QueryKeyword matches by extracted keywords.
	QueryKeyword QueryType = "keyword"

	// QueryHybrid combines both signals.
	QueryHybrid QueryType = "hybrid"
)

// IsValid returns true if the query type is recognised.
func (t QueryType) IsValid() bool {
	switch t {
	case QuerySemantic, QueryKeyword, QueryHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t QueryType) String() string {
	return string(t)
}

// SearchQuery is one weighted retrieval query derived from a rule.
// Queries are ephemeral: produced per review pass and consumed once.
type SearchQuery struct {
	// QueryID names the query's origin ("{rule}_intent",
	// "{rule}_param_{name}", "combined_2rules", ...).
	QueryID string `json:"query_id"`

	// Text is what gets embedded and searched.
	Text string `json:"text"`

	// Keywords are the extracted retrieval keywords.
	Keywords []string `json:"keywords"`

	// Tags is the set of clause tags the originating rules bias toward.
	Tags map[string]struct{} `json:"-"`

	// RuleIDs are the rules this query serves. Cross-rule merged
	// queries reference every contributing rule.
	RuleIDs []string `json:"rules"`

	// QueryType selects the matching strategy.
	QueryType QueryType `json:"query_type"`

	// Weight in [0,1] ranks this query against its siblings.
	Weight float64 `json:"weight"`
}

// TagList returns the tag set as a deterministic-order-free slice.
func (q SearchQuery) TagList() []string {
	tags := make([]string, 0, len(q.Tags))
	for tag := range q.Tags {
		tags = append(tags, tag)
	}
	return tags
}

// QueryBuildResult is the query builder's output for one rule batch.
// UniqueKeywords and UniqueTags count distinct values across the
// per-rule queries (the merged query does not contribute).
type QueryBuildResult struct {
	Queries        []SearchQuery `json:"queries"`
	RulesCount     int           `json:"rules_count"`
	UniqueKeywords int           `json:"unique_keywords"`
	UniqueTags     int           `json:"unique_tags"`
}

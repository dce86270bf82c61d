package domain

import "time"

// ExplainMessage is one turn in a follow-up conversation.
type ExplainMessage struct {
	// MessageID is "msg_{8 hex}".
	MessageID string `json:"message_id"`

	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text. Assistant turns store the
	// serialised explanation.
	Content string `json:"content"`

	Timestamp time.Time `json:"timestamp"`
}

// ExplainSession is a follow-up conversation anchored to one review
// result. Sessions are append-only message logs.
type ExplainSession struct {
	// SessionID is "session_{12 hex}".
	SessionID string `json:"session_id"`

	// ReviewID and RuleID anchor the session to one result.
	ReviewID string `json:"review_id"`
	RuleID   string `json:"rule_id"`

	Messages []ExplainMessage `json:"messages"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// EvidenceRef is one evidence citation inside an explanation.
type EvidenceRef struct {
	ChunkID   string `json:"chunk_id"`
	Quote     string `json:"quote"`
	Page      int    `json:"page"`
	Relevance string `json:"relevance"`
}

// Explanation is the answer to one follow-up question, derived from a
// review result and its evidence.
type Explanation struct {
	SessionID    string        `json:"session_id"`
	MessageID    string        `json:"message_id"`
	Answer       string        `json:"answer"`
	Reasoning    string        `json:"reasoning"`
	EvidenceRefs []EvidenceRef `json:"evidence_references"`

	// Confidence is "high" when evidence backs the answer, else "medium".
	Confidence string `json:"confidence"`

	// Limitations lists caveats ("evidence may be incomplete").
	Limitations []string  `json:"limitations"`
	Timestamp   time.Time `json:"timestamp"`
}

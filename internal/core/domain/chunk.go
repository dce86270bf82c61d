package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Chunk is a retrieval-sized unit of document text. Chunks are created
// once per segmentation pass and are immutable thereafter.
type Chunk struct {
	// ChunkID is deterministic: "{doc_id}_p{page}_c{index}" where index
	// is the document-global chunk index.
	ChunkID string `json:"chunk_id"`

	// DocID links to the owning document.
	DocID string `json:"doc_id"`

	// Page is the 1-based page the chunk's text came from.
	Page int `json:"page"`

	// Text is the chunk content, verbatim from the page spans.
	Text string `json:"text"`

	// BBox is the merged bounding box over the chunk's spans.
	// A chunk assembled from spans without geometry gets a zero box.
	BBox BBox `json:"bbox"`

	// ClauseHint is the heuristic clause-type label ("payment",
	// "confidentiality", ...) or "unknown" when no keyword matched.
	ClauseHint string `json:"clause_hint"`

	// CharStart and CharEnd are document-global character (rune)
	// offsets. CharEnd-CharStart always equals the rune count of Text.
	CharStart int `json:"char_start"`
	CharEnd   int `json:"char_end"`

	// TokenCount approximates length as CJK character count plus Latin
	// word count. It is a packing heuristic, not a tokenizer count.
	TokenCount int `json:"token_count"`

	// Metadata carries span-level attributes (font size, bold, ...).
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the segmentation pass produced the chunk.
	CreatedAt time.Time `json:"created_at"`
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(docID string, page, index int) string {
	return fmt.Sprintf("%s_p%d_c%d", docID, page, index)
}

// SpanLength returns CharEnd-CharStart, which always equals the rune
// count of Text for a well-formed chunk.
func (c Chunk) SpanLength() int {
	return c.CharEnd - c.CharStart
}

// Wellformed reports whether the chunk's character offsets agree with
// its text.
func (c Chunk) Wellformed() bool {
	return c.SpanLength() == utf8.RuneCountInString(c.Text)
}

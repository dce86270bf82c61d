package domain

import "time"

// VectorRecord is one embedded chunk as stored in a vector index.
// Every indexed record carries a non-nil embedding whose length equals
// the index's configured dimension.
type VectorRecord struct {
	// ChunkID is the record key; re-adding replaces the record.
	ChunkID string `json:"chunk_id"`

	// DocID links back to the owning document.
	DocID string `json:"doc_id"`

	// Text is the chunk content, kept for hit hydration.
	Text string `json:"text"`

	// Embedding is the fixed-dimension vector.
	Embedding []float32 `json:"embedding"`

	// Page and ClauseHint are the filterable metadata fields.
	Page       int    `json:"page"`
	ClauseHint string `json:"clause_hint"`

	// Metadata carries chunk attributes along for inspection.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchFilter restricts a vector search by metadata equality. Empty
// fields do not filter. Filters apply before truncation to top-k.
type SearchFilter struct {
	// DocID keeps only records from one document.
	DocID string

	// ClauseHint keeps only records with this clause label.
	ClauseHint string
}

// Matches reports whether a record passes the filter.
func (f SearchFilter) Matches(rec VectorRecord) bool {
	if f.DocID != "" && rec.DocID != f.DocID {
		return false
	}
	if f.ClauseHint != "" && rec.ClauseHint != f.ClauseHint {
		return false
	}
	return true
}

// VectorHit is one ranked similarity-search result.
type VectorHit struct {
	ChunkID    string         `json:"chunk_id"`
	DocID      string         `json:"doc_id"`
	Text       string         `json:"text"`
	Page       int            `json:"page"`
	ClauseHint string         `json:"clause_hint"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// IndexStats summarises a vector index's contents.
type IndexStats struct {
	// TotalChunks is the number of indexed records.
	TotalChunks int `json:"total_chunks"`

	// TotalDocuments is the number of distinct doc ids.
	TotalDocuments int `json:"total_documents"`

	// DocumentCounts maps doc id to its record count.
	DocumentCounts map[string]int `json:"document_counts"`

	// ClauseCounts maps clause hint to its record count.
	ClauseCounts map[string]int `json:"clause_counts"`

	// Dimension is the index's vector length; 0 when empty.
	Dimension int `json:"embedding_dimension"`
}

// PipelineStats reports one embedding-pipeline indexing pass.
// Batch failures degrade to skipped records, never abort the pass.
type PipelineStats struct {
	// TotalProcessed is how many chunks the pass consumed.
	TotalProcessed int `json:"total_processed"`

	// Indexed is how many records reached the index.
	Indexed int `json:"indexed"`

	// FailedCount is how many chunks were in failed encode batches.
	FailedCount int `json:"failed_count"`

	// Duration is the wall-clock time of the pass.
	Duration time.Duration `json:"duration"`
}

// IngestStats reports one document ingest.
type IngestStats struct {
	DocID       string        `json:"doc_id"`
	Pages       int           `json:"pages"`
	Chunks      int           `json:"chunks"`
	Indexed     int           `json:"indexed"`
	EmbedFailed int           `json:"embed_failed"`
	Duration    time.Duration `json:"duration"`
}

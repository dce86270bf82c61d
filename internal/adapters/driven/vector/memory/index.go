// Package memory provides an exact in-memory vector index.
// Every search recomputes cosine similarity against all records, which
// is O(n·d) per query and right at single-document scale.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vector records keyed by chunk ID.
// Records are scored in insertion order, which makes equal-score
// ranking deterministic.
type Index struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
	order   []string
}

// New creates an empty index.
func New() *Index {
	return &Index{
		records: make(map[string]domain.VectorRecord),
	}
}

// Add inserts the record, replacing any record with the same chunk ID.
func (idx *Index) Add(_ context.Context, record domain.VectorRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.add(record)
}

// AddBatch inserts multiple records. Records without embeddings are
// skipped; the embedding pipeline already counted them as failures.
func (idx *Index) AddBatch(_ context.Context, records []domain.VectorRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, record := range records {
		if len(record.Embedding) == 0 {
			continue
		}
		if err := idx.add(record); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) add(record domain.VectorRecord) error {
	if record.ChunkID == "" {
		return fmt.Errorf("%w: record needs a chunk ID", domain.ErrInvalidInput)
	}
	if len(record.Embedding) == 0 {
		return fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, record.ChunkID)
	}
	if dim := idx.dimension(); dim > 0 && len(record.Embedding) != dim {
		return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, record.ChunkID, len(record.Embedding), dim)
	}

	if _, exists := idx.records[record.ChunkID]; !exists {
		idx.order = append(idx.order, record.ChunkID)
	}
	idx.records[record.ChunkID] = record
	return nil
}

// Search returns the topK records most similar to the query vector.
// Filters are applied before truncation; equal scores keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, topK int, filter domain.SearchFilter) ([]domain.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if topK <= 0 || len(idx.records) == 0 {
		return nil, nil
	}
	if dim := idx.dimension(); dim > 0 && len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), dim)
	}

	hits := make([]domain.VectorHit, 0, len(idx.records))
	for _, chunkID := range idx.order {
		record := idx.records[chunkID]
		if !filter.Matches(record) {
			continue
		}

		hits = append(hits, domain.VectorHit{
			ChunkID:    record.ChunkID,
			DocID:      record.DocID,
			Text:       record.Text,
			Page:       record.Page,
			ClauseHint: record.ClauseHint,
			Score:      cosineSimilarity(query, record.Embedding),
			Metadata:   record.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDoc removes all records belonging to the document.
func (idx *Index) DeleteByDoc(_ context.Context, docID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.order[:0]
	removed := 0
	for _, chunkID := range idx.order {
		if idx.records[chunkID].DocID == docID {
			delete(idx.records, chunkID)
			removed++
			continue
		}
		kept = append(kept, chunkID)
	}
	idx.order = kept

	return removed, nil
}

// Stats reports index size and composition.
func (idx *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := domain.IndexStats{
		TotalChunks:    len(idx.records),
		DocumentCounts: make(map[string]int),
		ClauseCounts:   make(map[string]int),
		Dimension:      idx.dimension(),
	}

	for _, chunkID := range idx.order {
		record := idx.records[chunkID]
		stats.DocumentCounts[record.DocID]++
		stats.ClauseCounts[record.ClauseHint]++
	}
	stats.TotalDocuments = len(stats.DocumentCounts)

	return stats, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = make(map[string]domain.VectorRecord)
	idx.order = nil
	return nil
}

func (idx *Index) dimension() int {
	if len(idx.order) == 0 {
		return 0
	}
	return len(idx.records[idx.order[0]].Embedding)
}

// cosineSimilarity computes dot(a,b) / (|a|·|b| + ε). The epsilon keeps
// zero vectors from dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-8)
}

package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// VectorIndex stores chunk embeddings and serves similarity search.
// Two backends exist: an exact in-memory index and an approximate
// IVF index for larger corpora.
type VectorIndex interface {
	// Add inserts the record, replacing any record with the same chunk ID.
	Add(ctx context.Context, record domain.VectorRecord) error

	// AddBatch inserts multiple records, replacing records with matching
	// chunk IDs.
	AddBatch(ctx context.Context, records []domain.VectorRecord) error

	// Search returns the topK records most similar to the query vector,
	// best first. The filter is applied before truncation, so a filtered
	// search still returns up to topK hits.
	Search(ctx context.Context, query []float32, topK int, filter domain.SearchFilter) ([]domain.VectorHit, error)

	// DeleteByDoc removes all records belonging to the document and
	// returns how many were removed.
	DeleteByDoc(ctx context.Context, docID string) (int, error)

	// Stats reports index size and composition.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}

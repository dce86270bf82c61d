package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when no such document exists.
	GetDocument(ctx context.Context, docID string) (*domain.Document, error)

	// ListDocuments returns all documents, oldest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, docID string) error

	// SaveChunks stores chunks, replacing chunks with matching IDs.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document in segmentation order.
	GetChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	// Returns domain.ErrNotFound when no such chunk exists.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}

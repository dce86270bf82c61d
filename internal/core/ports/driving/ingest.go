package driving

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// IngestService parses, segments and indexes documents, and manages the
// documents it produced.
type IngestService interface {
	// Ingest reads the file at path, segments it into chunks, embeds and
	// indexes them, and records the document. A document with the same ID
	// is replaced.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestStats, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, docID string) (*domain.Document, error)

	// List returns all documents, oldest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Chunks returns a document's chunks in segmentation order.
	Chunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// Delete removes a document, its chunks and its index entries.
	Delete(ctx context.Context, docID string) error
}

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	// Path is the page file or plain-text file to read.
	Path string

	// DocID identifies the document. Empty means derive one from the
	// file name.
	DocID string

	// Title is the display title. Empty means derive one from the
	// file name.
	Title string
}

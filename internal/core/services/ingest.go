package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/trustlens-labs/trustlens-cli/internal/chunker"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns page files into searchable documents: parse,
// segment, embed, index, record. Re-ingesting a document ID replaces
// the stored document and its index entries wholesale.
type IngestService struct {
	parser    driven.PageParser
	docStore  driven.DocumentStore
	pipeline  *EmbeddingPipeline
	segmenter *chunker.Segmenter
}

// NewIngestService creates the ingest service. A nil segmenter gets
// the default chunk sizing.
func NewIngestService(parser driven.PageParser, docStore driven.DocumentStore, pipeline *EmbeddingPipeline, segmenter *chunker.Segmenter) *IngestService {
	if segmenter == nil {
		segmenter = chunker.New()
	}
	return &IngestService{
		parser:    parser,
		docStore:  docStore,
		pipeline:  pipeline,
		segmenter: segmenter,
	}
}

// Ingest runs the pipeline for one file. The document moves through
// UPLOADED, PROCESSING and READY; any failure parks it at FAILED with
// the cause in the status message. Embedding failures are not fatal:
// affected chunks are counted in EmbedFailed and stay retrievable by
// re-ingesting later.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestStats, error) {
	start := time.Now()

	if req.Path == "" {
		return nil, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	docID := req.DocID
	if docID == "" {
		docID = slugFromPath(req.Path)
	}
	title := req.Title
	if title == "" {
		title = titleFromPath(req.Path)
	}

	logger.Section("Ingesting Document")
	logger.Info("Ingesting %s as %s", req.Path, docID)

	if err := s.replaceExisting(ctx, docID); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		DocID:     docID,
		Title:     title,
		Path:      req.Path,
		Status:    domain.DocumentUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	pages, err := s.parser.Parse(ctx, req.Path)
	if err != nil {
		s.failDocument(ctx, doc, err)
		return nil, fmt.Errorf("parsing %s: %w", req.Path, err)
	}
	doc.PageCount = len(pages)
	doc.Status = domain.DocumentProcessing
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	chunks := s.segmenter.Segment(pages, docID)
	doc.ChunkCount = len(chunks)
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		s.failDocument(ctx, doc, err)
		return nil, fmt.Errorf("saving chunks: %w", err)
	}
	logger.Debug("Segmented %d pages into %d chunks", len(pages), len(chunks))

	pipelineStats, err := s.pipeline.IndexChunks(ctx, chunks)
	if err != nil {
		s.failDocument(ctx, doc, err)
		return nil, fmt.Errorf("indexing chunks: %w", err)
	}

	doc.Status = domain.DocumentReady
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	stats := &domain.IngestStats{
		DocID:       docID,
		Pages:       len(pages),
		Chunks:      len(chunks),
		Indexed:     pipelineStats.Indexed,
		EmbedFailed: pipelineStats.FailedCount,
		Duration:    time.Since(start),
	}
	logger.Info("Ingested %s: %d pages, %d chunks, %d indexed (%d failed) in %v",
		docID, stats.Pages, stats.Chunks, stats.Indexed, stats.EmbedFailed, stats.Duration)
	return stats, nil
}

// replaceExisting drops a previous ingest of the same document ID.
func (s *IngestService) replaceExisting(ctx context.Context, docID string) error {
	_, err := s.docStore.GetDocument(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking for existing document: %w", err)
	}

	logger.Debug("Replacing existing document %s", docID)
	if _, err := s.pipeline.RemoveDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing old index entries: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing old document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *IngestService) Get(ctx context.Context, docID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, docID)
}

// List returns all documents, oldest first.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Chunks returns a document's chunks in segmentation order.
func (s *IngestService) Chunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	if _, err := s.docStore.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	return s.docStore.GetChunks(ctx, docID)
}

// Delete removes a document, its chunks and its index entries.
func (s *IngestService) Delete(ctx context.Context, docID string) error {
	if _, err := s.docStore.GetDocument(ctx, docID); err != nil {
		return err
	}

	removed, err := s.pipeline.RemoveDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("removing index entries: %w", err)
	}
	logger.Debug("Removed %d index entries for %s", removed, docID)

	if err := s.docStore.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	return nil
}

// failDocument parks the document at FAILED with the cause.
func (s *IngestService) failDocument(ctx context.Context, doc *domain.Document, cause error) {
	doc.Status = domain.DocumentFailed
	doc.StatusMessage = cause.Error()
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Marking document %s failed: %v", doc.DocID, err)
	}
}

// slugFromPath derives a document ID from the file name: letter and
// digit runs, lowercased, joined by underscores.
func slugFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var runs []string
	var current []rune
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, unicode.ToLower(r))
			continue
		}
		if len(current) > 0 {
			runs = append(runs, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		runs = append(runs, string(current))
	}

	slug := strings.Join(runs, "_")
	if slug == "" {
		return "doc_" + randomHex(4)
	}
	return slug
}

// titleFromPath derives a display title from the file name.
func titleFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// defaultEmbedBatchSize bounds one encode call. Provider APIs cap the
// number of inputs per request, so oversized batches would be rejected
// wholesale.
const defaultEmbedBatchSize = 100

// defaultSearchTopK is the result count used when a caller passes a
// non-positive top-k.
const defaultSearchTopK = 10

// EmbeddingPipeline couples an embedding provider with a vector index.
// It turns chunks into indexed vectors at ingest time and turns query
// text into ranked hits at retrieval time.
//
// The index lives in memory and is not persisted across restarts;
// Rebuild re-encodes every stored chunk to bring a fresh process back
// to a searchable state.
type EmbeddingPipeline struct {
	encoder   driven.EmbeddingService
	index     driven.VectorIndex
	batchSize int
}

// PipelineOption configures an EmbeddingPipeline.
type PipelineOption func(*EmbeddingPipeline)

// WithEmbedBatchSize overrides the number of chunks encoded per
// provider call. Non-positive values keep the default.
func WithEmbedBatchSize(size int) PipelineOption {
	return func(p *EmbeddingPipeline) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// NewEmbeddingPipeline creates a pipeline over the given encoder and index.
func NewEmbeddingPipeline(encoder driven.EmbeddingService, index driven.VectorIndex, opts ...PipelineOption) *EmbeddingPipeline {
	p := &EmbeddingPipeline{
		encoder:   encoder,
		index:     index,
		batchSize: defaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IndexChunks encodes the chunks in batches and adds them to the index.
//
// A failed batch is counted in FailedCount and its chunks are left out
// of the index; the remaining batches still go through. The pipeline
// only aborts on context cancellation or when encoder or index is
// missing entirely.
func (p *EmbeddingPipeline) IndexChunks(ctx context.Context, chunks []domain.Chunk) (*domain.PipelineStats, error) {
	start := time.Now()
	stats := &domain.PipelineStats{TotalProcessed: len(chunks)}

	if len(chunks) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}
	if p.encoder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if p.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	batches := (len(chunks) + p.batchSize - 1) / p.batchSize
	logger.Debug("Indexing %d chunks in %d batches", len(chunks), batches)

	for i := 0; i < len(chunks); i += p.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := i + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Text
		}

		embeddings, err := p.encoder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("Embedding batch %d/%d failed, skipping %d chunks: %v",
				i/p.batchSize+1, batches, len(batch), err)
			stats.FailedCount += len(batch)
			continue
		}
		if len(embeddings) != len(batch) {
			logger.Warn("Embedding batch %d/%d returned %d vectors for %d chunks, skipping",
				i/p.batchSize+1, batches, len(embeddings), len(batch))
			stats.FailedCount += len(batch)
			continue
		}

		records := make([]domain.VectorRecord, len(batch))
		for j, chunk := range batch {
			records[j] = domain.VectorRecord{
				ChunkID:    chunk.ChunkID,
				DocID:      chunk.DocID,
				Text:       chunk.Text,
				Embedding:  embeddings[j],
				Page:       chunk.Page,
				ClauseHint: chunk.ClauseHint,
				Metadata:   chunk.Metadata,
			}
		}

		if err := p.index.AddBatch(ctx, records); err != nil {
			logger.Warn("Adding batch %d/%d to index failed, skipping %d chunks: %v",
				i/p.batchSize+1, batches, len(batch), err)
			stats.FailedCount += len(batch)
			continue
		}
		stats.Indexed += len(records)
	}

	stats.Duration = time.Since(start)
	logger.Debug("Indexed %d/%d chunks (%d failed) in %v",
		stats.Indexed, stats.TotalProcessed, stats.FailedCount, stats.Duration)
	return stats, nil
}

// Search encodes the query text and runs a similarity search.
func (p *EmbeddingPipeline) Search(ctx context.Context, text string, topK int, filter domain.SearchFilter) ([]domain.VectorHit, error) {
	if p.encoder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if p.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = defaultSearchTopK
	}

	embedding, err := p.encoder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := p.index.Search(ctx, embedding, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return hits, nil
}

// RemoveDocument drops all indexed vectors for a document and returns
// how many were removed.
func (p *EmbeddingPipeline) RemoveDocument(ctx context.Context, docID string) (int, error) {
	if p.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	return p.index.DeleteByDoc(ctx, docID)
}

// Stats reports the current index contents.
func (p *EmbeddingPipeline) Stats(ctx context.Context) (domain.IndexStats, error) {
	if p.index == nil {
		return domain.IndexStats{}, domain.ErrVectorIndexUnavailable
	}
	return p.index.Stats(ctx)
}

// Rebuild re-indexes every chunk held by the document store. It is run
// at startup because the vector index is process-local.
func (p *EmbeddingPipeline) Rebuild(ctx context.Context, docs driven.DocumentStore) (*domain.PipelineStats, error) {
	start := time.Now()
	total := &domain.PipelineStats{}

	documents, err := docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(documents) == 0 {
		total.Duration = time.Since(start)
		return total, nil
	}

	logger.Section("Rebuilding Vector Index")
	for _, doc := range documents {
		chunks, err := docs.GetChunks(ctx, doc.DocID)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for %s: %w", doc.DocID, err)
		}
		stats, err := p.IndexChunks(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", doc.DocID, err)
		}
		total.TotalProcessed += stats.TotalProcessed
		total.Indexed += stats.Indexed
		total.FailedCount += stats.FailedCount
	}

	total.Duration = time.Since(start)
	logger.Info("Rebuilt index: %d chunks from %d documents in %v",
		total.Indexed, len(documents), total.Duration)
	return total, nil
}

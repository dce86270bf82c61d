package services

import (
	"context"
	"strings"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers ad-hoc semantic queries against the vector
// index. It is a thin layer over the embedding pipeline: the same
// retrieval path reviews use, without the rule machinery.
type SearchService struct {
	pipeline *EmbeddingPipeline
}

// NewSearchService creates a new search service.
func NewSearchService(pipeline *EmbeddingPipeline) *SearchService {
	return &SearchService{pipeline: pipeline}
}

// Search embeds the query text and returns the most similar chunks.
func (s *SearchService) Search(ctx context.Context, req driving.SearchRequest) ([]domain.VectorHit, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", req.Text)

	text := strings.TrimSpace(req.Text)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.VectorHit{}, nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}

	filter := domain.SearchFilter{
		DocID:      req.DocID,
		ClauseHint: req.ClauseHint,
	}
	if filter.DocID != "" {
		logger.Debug("Document filter: %s", filter.DocID)
	}
	if filter.ClauseHint != "" {
		logger.Debug("Clause filter: %s", filter.ClauseHint)
	}

	hits, err := s.pipeline.Search(ctx, text, topK, filter)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, err
	}

	logger.Info("Results: %d", len(hits))
	return hits, nil
}

// Stats reports index size and composition.
func (s *SearchService) Stats(ctx context.Context) (domain.IndexStats, error) {
	return s.pipeline.Stats(ctx)
}

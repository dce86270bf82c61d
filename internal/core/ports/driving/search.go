package driving

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// SearchService provides ad-hoc semantic search over indexed chunks.
type SearchService interface {
	// Search embeds the query text and returns the most similar chunks.
	Search(ctx context.Context, req SearchRequest) ([]domain.VectorHit, error)

	// Stats reports index size and composition.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// SearchRequest describes one ad-hoc search.
type SearchRequest struct {
	// Text is the query text.
	Text string

	// DocID, when set, restricts hits to one document.
	DocID string

	// ClauseHint, when set, restricts hits to chunks with that hint.
	ClauseHint string

	// TopK is the maximum number of hits. Zero means the default of 10.
	TopK int
}

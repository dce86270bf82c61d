package driven

import (
	"context"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// PageParser reads a document file into positioned page spans.
// The pagefile adapter handles pre-parsed JSON page files and falls
// back to plain text, one synthetic page per file.
type PageParser interface {
	// Parse reads the file at path into pages.
	Parse(ctx context.Context, path string) ([]domain.Page, error)
}

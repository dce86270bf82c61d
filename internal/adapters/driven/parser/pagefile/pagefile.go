// Package pagefile reads pre-parsed page-span files produced by the
// upstream document tooling. The primary format is a JSON envelope of
// pages with positioned spans; plain text files degrade to a single
// synthetic page without geometry.
package pagefile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.PageParser = (*Parser)(nil)

// Parser loads page-span files from disk.
type Parser struct{}

// New creates a new page file parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads the file at path into pages. Files with a .json
// extension are decoded as page-span exports; anything else is treated
// as plain text and wrapped in one synthetic page.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parsePageJSON(data)
	}
	return parsePlainText(data), nil
}

// pageEnvelope is the on-disk shape written by the parsing tooling.
// Only pages matter here; document identity is assigned at ingest.
type pageEnvelope struct {
	Pages []pageJSON `json:"pages"`
}

type pageJSON struct {
	PageNumber int        `json:"page_number"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Spans      []spanJSON `json:"spans"`

	// TextBlocks is the field name used by older PDF exports for the
	// same span list. RawText backs pages exported without spans.
	TextBlocks []spanJSON `json:"text_blocks"`
	RawText    string     `json:"raw_text"`
}

type spanJSON struct {
	Text     string   `json:"text"`
	BBox     bboxJSON `json:"bbox"`
	FontSize float64  `json:"font_size"`
	FontName string   `json:"font_name"`
	IsBold   bool     `json:"is_bold"`
}

// bboxJSON accepts both the object form {"x1":..,"y1":..,"x2":..,"y2":..}
// and the array form [x1, y1, x2, y2] found in older exports.
type bboxJSON struct {
	domain.BBox
}

func (b *bboxJSON) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var coords []float64
		if err := json.Unmarshal(trimmed, &coords); err != nil {
			return err
		}
		if len(coords) < 4 {
			return fmt.Errorf("bbox array has %d coordinates, want 4", len(coords))
		}
		b.BBox = domain.BBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
		return nil
	}
	return json.Unmarshal(data, &b.BBox)
}

// parsePageJSON decodes a page-span export. Both the envelope form
// {"pages": [...]} and a bare page array are accepted.
func parsePageJSON(data []byte) ([]domain.Page, error) {
	var rawPages []pageJSON

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rawPages); err != nil {
			return nil, fmt.Errorf("parsing page file: %w", err)
		}
	} else {
		var envelope pageEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("parsing page file: %w", err)
		}
		rawPages = envelope.Pages
	}

	if len(rawPages) == 0 {
		return nil, fmt.Errorf("%w: page file has no pages", domain.ErrInvalidInput)
	}

	pages := make([]domain.Page, 0, len(rawPages))
	for i, raw := range rawPages {
		pages = append(pages, hydratePage(raw, i+1))
	}
	return pages, nil
}

// hydratePage converts one raw page record, filling gaps the way the
// upstream tooling does: missing page numbers become sequential, and a
// page with raw text but no spans gets a single full-page span.
func hydratePage(raw pageJSON, fallbackNumber int) domain.Page {
	page := domain.Page{
		PageNumber: raw.PageNumber,
		Width:      raw.Width,
		Height:     raw.Height,
	}
	if page.PageNumber <= 0 {
		page.PageNumber = fallbackNumber
	}

	source := raw.Spans
	if len(source) == 0 {
		source = raw.TextBlocks
	}

	for _, s := range source {
		if s.Text == "" {
			continue
		}
		bbox := s.BBox.BBox
		if bbox.PageWidth == 0 {
			bbox.PageWidth = raw.Width
		}
		if bbox.PageHeight == 0 {
			bbox.PageHeight = raw.Height
		}
		page.Spans = append(page.Spans, domain.Span{
			Text:     s.Text,
			BBox:     bbox,
			FontSize: s.FontSize,
			FontName: s.FontName,
			Bold:     s.IsBold,
		})
	}

	if len(page.Spans) == 0 && strings.TrimSpace(raw.RawText) != "" {
		page.Spans = append(page.Spans, domain.Span{
			Text: strings.TrimSpace(raw.RawText),
			BBox: domain.BBox{
				X2:         raw.Width,
				Y2:         raw.Height,
				PageWidth:  raw.Width,
				PageHeight: raw.Height,
			},
		})
	}

	return page
}

// parsePlainText wraps file content in one synthetic page. There is no
// geometry to preserve, so the single span carries a zero bounding box.
func parsePlainText(data []byte) []domain.Page {
	page := domain.Page{PageNumber: 1}

	text := strings.TrimSpace(string(data))
	if text != "" {
		page.Spans = append(page.Spans, domain.Span{Text: text})
	}

	return []domain.Page{page}
}

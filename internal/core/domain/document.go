package domain

import "time"

// BBox is an axis-aligned bounding box in page coordinates.
// X1/Y1 is the top-left corner, X2/Y2 the bottom-right.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`

	// PageWidth and PageHeight carry the page geometry used to
	// interpret the coordinates. Zero means unknown.
	PageWidth  float64 `json:"page_width,omitempty"`
	PageHeight float64 `json:"page_height,omitempty"`
}

// IsZero reports whether the box has no area and no position.
func (b BBox) IsZero() bool {
	return b.X1 == 0 && b.Y1 == 0 && b.X2 == 0 && b.Y2 == 0
}

// Merge returns the smallest box covering both b and other.
// Page geometry is taken from b when set.
func (b BBox) Merge(other BBox) BBox {
	merged := BBox{
		X1:         min(b.X1, other.X1),
		Y1:         min(b.Y1, other.Y1),
		X2:         max(b.X2, other.X2),
		Y2:         max(b.Y2, other.Y2),
		PageWidth:  b.PageWidth,
		PageHeight: b.PageHeight,
	}
	if merged.PageWidth == 0 {
		merged.PageWidth = other.PageWidth
	}
	if merged.PageHeight == 0 {
		merged.PageHeight = other.PageHeight
	}
	return merged
}

// Span is one positioned run of text on a page, as produced by the
// parsing collaborator. Font metadata is optional.
type Span struct {
	// Text is the raw span text.
	Text string `json:"text"`

	// BBox is the span's position on the page.
	BBox BBox `json:"bbox"`

	// FontSize is the span's font size in points, if known.
	FontSize float64 `json:"font_size,omitempty"`

	// FontName is the span's font name, if known.
	FontName string `json:"font_name,omitempty"`

	// Bold reports whether the span is rendered bold.
	Bold bool `json:"is_bold,omitempty"`
}

// Page is one parsed document page: ordered positioned spans plus
// the page geometry. This is the segmentation engine's only input shape.
type Page struct {
	// PageNumber is the 1-based page number.
	PageNumber int `json:"page_number"`

	// Width and Height are the page dimensions in points.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Spans are the positioned text runs on this page.
	Spans []Span `json:"spans"`
}

// DocumentStatus tracks a document through its ingest/review lifecycle.
type DocumentStatus string

// Document lifecycle states.
const (
	DocumentUploaded   DocumentStatus = "UPLOADED"
	DocumentProcessing DocumentStatus = "PROCESSING"
	DocumentReady      DocumentStatus = "READY"
	DocumentReviewing  DocumentStatus = "REVIEWING"
	DocumentReviewed   DocumentStatus = "REVIEWED"
	DocumentFailed     DocumentStatus = "FAILED"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentUploaded, DocumentProcessing, DocumentReady,
		DocumentReviewing, DocumentReviewed, DocumentFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document is the metadata record for one ingested document.
// Its text lives in the chunks produced at ingest time.
type Document struct {
	// DocID is the unique identifier for the document.
	DocID string

	// Title is the human-readable title.
	Title string

	// Path is the source file the pages were parsed from.
	Path string

	// PageCount is the number of parsed pages.
	PageCount int

	// ChunkCount is the number of chunks produced at ingest.
	ChunkCount int

	// Status is the lifecycle state.
	Status DocumentStatus

	// StatusMessage carries detail for FAILED documents.
	StatusMessage string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

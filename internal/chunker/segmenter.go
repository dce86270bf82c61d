// Package chunker segments parsed document pages into retrieval-sized
// chunks. Segmentation is a pure transform: the same pages always yield
// the same chunk boundaries, offsets, clause hints and token counts.
package chunker

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// DefaultMinSize is the default lower bound on chunk tokens.
const DefaultMinSize = 50

// DefaultMaxSize is the default upper bound on chunk tokens.
const DefaultMaxSize = 300

// DefaultTargetSize is the default token budget a chunk is packed towards.
const DefaultTargetSize = 150

// paragraphGap is the vertical distance between span tops that starts a
// new paragraph, roughly 1.25 line heights at common body text sizes.
const paragraphGap = 25.0

// sentenceBoundary marks the end of a sentence in Chinese or English text.
var sentenceBoundary = regexp.MustCompile(`[。！？.!?]`)

// Segmenter splits parsed pages into chunks suitable for embedding and
// retrieval. Paragraphs are grouped by vertical position, then packed
// greedily up to the target token budget; oversized paragraphs are split
// at sentence boundaries.
type Segmenter struct {
	minSize    int
	maxSize    int
	targetSize int
	now        func() time.Time
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithMinSize sets the minimum chunk size in estimated tokens.
func WithMinSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.minSize = size
		}
	}
}

// WithMaxSize sets the maximum chunk size in estimated tokens.
func WithMaxSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithTargetSize sets the token budget chunks are packed towards.
func WithTargetSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.targetSize = size
		}
	}
}

// WithClock sets the time source used for chunk creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Segmenter) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		minSize:    DefaultMinSize,
		maxSize:    DefaultMaxSize,
		targetSize: DefaultTargetSize,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Keep min <= target <= max so the packing bounds stay coherent.
	if s.targetSize > s.maxSize {
		s.targetSize = s.maxSize
	}
	if s.minSize > s.targetSize {
		s.minSize = s.targetSize
	}

	return s
}

// Segment splits pages into chunks. Chunk indexes and character offsets
// are global across pages, so chunk IDs stay unique within the document
// and CharStart/CharEnd describe rune positions in the concatenated
// chunk text of the whole document.
func (s *Segmenter) Segment(pages []domain.Page, docID string) []domain.Chunk {
	var chunks []domain.Chunk
	charOffset := 0

	for _, page := range pages {
		paragraphs := extractParagraphs(page)

		pageChunks, consumed := s.packParagraphs(paragraphs, docID, page.PageNumber, len(chunks), charOffset)
		chunks = append(chunks, pageChunks...)
		charOffset += consumed
	}

	return chunks
}

// paragraph is an intermediate grouping of spans that belong to the same
// visual block of text.
type paragraph struct {
	text     string
	boxes    []domain.BBox
	metadata map[string]any
}

func newParagraph() paragraph {
	return paragraph{metadata: make(map[string]any)}
}

// extractParagraphs groups a page's spans into paragraphs. Spans are
// visited in reading order (top to bottom, left to right); a vertical
// jump larger than paragraphGap starts a new paragraph.
func extractParagraphs(page domain.Page) []paragraph {
	if len(page.Spans) == 0 {
		return nil
	}

	ordered := make([]domain.Span, len(page.Spans))
	copy(ordered, page.Spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BBox.Y1 != ordered[j].BBox.Y1 {
			return ordered[i].BBox.Y1 < ordered[j].BBox.Y1
		}
		return ordered[i].BBox.X1 < ordered[j].BBox.X1
	})

	var paragraphs []paragraph
	current := newParagraph()
	prevY := 0.0
	seen := false

	for _, span := range ordered {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}

		if seen && current.text != "" {
			gap := span.BBox.Y1 - prevY
			if gap < 0 {
				gap = -gap
			}
			if gap > paragraphGap {
				paragraphs = append(paragraphs, current)
				current = newParagraph()
			}
		}

		if current.text != "" {
			current.text += " "
		}
		current.text += text
		current.boxes = append(current.boxes, span.BBox)

		if span.FontSize > 0 {
			current.metadata["font_size"] = span.FontSize
		}
		if span.FontName != "" {
			current.metadata["font_name"] = span.FontName
		}
		if span.Bold {
			current.metadata["is_bold"] = true
		}

		prevY = span.BBox.Y1
		seen = true
	}

	if current.text != "" {
		paragraphs = append(paragraphs, current)
	}

	return paragraphs
}

// packParagraphs greedily packs paragraphs into chunks. The current chunk
// is flushed when the next paragraph would push it past the target budget.
// A paragraph exceeding the max budget on its own is sentence-split and
// emitted as separate chunks. Returns the chunks and the number of runes
// consumed, so the caller can keep offsets global.
func (s *Segmenter) packParagraphs(paragraphs []paragraph, docID string, pageNumber, baseIndex, baseOffset int) ([]domain.Chunk, int) {
	var chunks []domain.Chunk
	current := newParagraph()
	offset := baseOffset

	flush := func(p paragraph) {
		chunks = append(chunks, s.buildChunk(docID, pageNumber, baseIndex+len(chunks), p, offset))
		offset += utf8.RuneCountInString(p.text)
	}

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para.text)

		if paraTokens > s.maxSize {
			if current.text != "" {
				flush(current)
				current = newParagraph()
			}
			for _, part := range splitLongParagraph(para.text, s.maxSize) {
				flush(paragraph{text: part, boxes: para.boxes, metadata: para.metadata})
			}
			continue
		}

		if EstimateTokens(current.text)+paraTokens <= s.targetSize {
			if current.text != "" {
				current.text += "\n\n"
			}
			current.text += para.text
			current.boxes = append(current.boxes, para.boxes...)
			for k, v := range para.metadata {
				current.metadata[k] = v
			}
			continue
		}

		if current.text != "" {
			flush(current)
		}
		current = paragraph{
			text:     para.text,
			boxes:    append([]domain.BBox(nil), para.boxes...),
			metadata: cloneMetadata(para.metadata),
		}
	}

	if current.text != "" {
		flush(current)
	}

	return chunks, offset - baseOffset
}

// splitLongParagraph splits text at sentence boundaries and packs the
// sentences into parts of at most maxTokens estimated tokens. A single
// sentence longer than maxTokens becomes a part on its own.
func splitLongParagraph(text string, maxTokens int) []string {
	var parts []string
	current := ""

	for _, sentence := range splitSentences(text) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}

		candidate := current + sentence
		if EstimateTokens(candidate) <= maxTokens {
			current = candidate
			continue
		}

		if current != "" {
			parts = append(parts, current)
		}
		current = sentence
	}

	if current != "" {
		parts = append(parts, current)
	}

	return parts
}

// splitSentences splits text after each sentence-ending punctuation mark,
// keeping the mark attached to its sentence.
func splitSentences(text string) []string {
	bounds := sentenceBoundary.FindAllStringIndex(text, -1)

	var sentences []string
	prev := 0
	for _, b := range bounds {
		sentences = append(sentences, text[prev:b[1]])
		prev = b[1]
	}
	if prev < len(text) {
		sentences = append(sentences, text[prev:])
	}

	return sentences
}

func (s *Segmenter) buildChunk(docID string, pageNumber, index int, p paragraph, charStart int) domain.Chunk {
	return domain.Chunk{
		ChunkID:    domain.ChunkID(docID, pageNumber, index),
		DocID:      docID,
		Page:       pageNumber,
		Text:       p.text,
		BBox:       mergeBoxes(p.boxes),
		ClauseHint: IdentifyClause(p.text),
		CharStart:  charStart,
		CharEnd:    charStart + utf8.RuneCountInString(p.text),
		TokenCount: EstimateTokens(p.text),
		Metadata:   cloneMetadata(p.metadata),
		CreatedAt:  s.now(),
	}
}

// mergeBoxes merges the boxes into their covering box. A chunk with no
// boxes gets a degenerate zero box.
func mergeBoxes(boxes []domain.BBox) domain.BBox {
	if len(boxes) == 0 {
		return domain.BBox{}
	}

	merged := boxes[0]
	for _, box := range boxes[1:] {
		merged = merged.Merge(box)
	}
	return merged
}

func cloneMetadata(metadata map[string]any) map[string]any {
	clone := make(map[string]any, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}

package chunker

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

// fixedClock keeps chunk timestamps comparable across runs.
func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func span(text string, y float64) domain.Span {
	return domain.Span{
		Text: text,
		BBox: domain.BBox{X1: 50, Y1: y, X2: 500, Y2: y + 20, PageWidth: 595, PageHeight: 842},
	}
}

func assertContiguous(t *testing.T, chunks []domain.Chunk) {
	t.Helper()
	for i, chunk := range chunks {
		assert.True(t, chunk.Wellformed(), "chunk %d offsets should match rune length", i)
		if i > 0 {
			assert.Equal(t, chunks[i-1].CharEnd, chunk.CharStart, "chunk %d should start where chunk %d ends", i, i-1)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		assert.Equal(t, DefaultMinSize, s.minSize)
		assert.Equal(t, DefaultMaxSize, s.maxSize)
		assert.Equal(t, DefaultTargetSize, s.targetSize)
	})

	t.Run("custom sizes", func(t *testing.T) {
		s := New(WithMinSize(10), WithMaxSize(100), WithTargetSize(60))
		assert.Equal(t, 10, s.minSize)
		assert.Equal(t, 100, s.maxSize)
		assert.Equal(t, 60, s.targetSize)
	})

	t.Run("zero and negative sizes ignored", func(t *testing.T) {
		s := New(WithMinSize(0), WithMaxSize(-5), WithTargetSize(0))
		assert.Equal(t, DefaultMinSize, s.minSize)
		assert.Equal(t, DefaultMaxSize, s.maxSize)
		assert.Equal(t, DefaultTargetSize, s.targetSize)
	})

	t.Run("target clamped to max", func(t *testing.T) {
		s := New(WithMaxSize(100), WithTargetSize(500))
		assert.Equal(t, 100, s.targetSize)
	})

	t.Run("min clamped to target", func(t *testing.T) {
		s := New(WithMinSize(200), WithTargetSize(100))
		assert.Equal(t, 100, s.minSize)
	})
}

func TestSegmenter_Segment_ContractPage(t *testing.T) {
	s := New(WithClock(fixedClock))

	// Section headings and body text sit more than one line apart, so
	// each span forms its own paragraph; all of them fit one chunk.
	page := domain.Page{
		PageNumber: 1,
		Width:      595,
		Height:     842,
		Spans: []domain.Span{
			span("第一条 租赁标的", 50),
			span("出租方将位于长沙市高新区创新大厦A座15楼的房屋出租给承租方使用。", 90),
			span("第二条 租金及支付方式", 130),
			span("每月租金为人民币5000元整。承租方应在每月5日前支付当月租金。", 170),
		},
	}

	chunks := s.Segment([]domain.Page{page}, "lease-001")

	require.Len(t, chunks, 1)
	chunk := chunks[0]

	assert.Equal(t, "lease-001_p1_c0", chunk.ChunkID)
	assert.Equal(t, "lease-001", chunk.DocID)
	assert.Equal(t, 1, chunk.Page)

	wantText := "第一条 租赁标的\n\n" +
		"出租方将位于长沙市高新区创新大厦A座15楼的房屋出租给承租方使用。\n\n" +
		"第二条 租金及支付方式\n\n" +
		"每月租金为人民币5000元整。承租方应在每月5日前支付当月租金。"
	assert.Equal(t, wantText, chunk.Text)

	assert.Equal(t, "payment", chunk.ClauseHint)
	assert.Equal(t, 72, chunk.TokenCount)
	assert.Equal(t, 0, chunk.CharStart)
	assert.Equal(t, utf8.RuneCountInString(wantText), chunk.CharEnd)
	assert.Equal(t, fixedClock(), chunk.CreatedAt)

	// Merged box spans all four spans and keeps the page geometry.
	assert.Equal(t, 50.0, chunk.BBox.X1)
	assert.Equal(t, 50.0, chunk.BBox.Y1)
	assert.Equal(t, 500.0, chunk.BBox.X2)
	assert.Equal(t, 190.0, chunk.BBox.Y2)
	assert.Equal(t, 595.0, chunk.BBox.PageWidth)
	assert.Equal(t, 842.0, chunk.BBox.PageHeight)
}

func TestSegmenter_Segment_ParagraphGrouping(t *testing.T) {
	s := New(WithClock(fixedClock))

	// Gaps of one line stay in the paragraph; larger gaps start a new one.
	page := domain.Page{
		PageNumber: 1,
		Spans: []domain.Span{
			span("Alpha beta", 100),
			span("gamma delta", 120),
			span("epsilon zeta", 160),
		},
	}

	chunks := s.Segment([]domain.Page{page}, "doc")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Alpha beta gamma delta\n\nepsilon zeta", chunks[0].Text)
}

func TestSegmenter_Segment_ReadingOrder(t *testing.T) {
	s := New(WithClock(fixedClock))

	// Spans arrive out of order; segmentation sorts by position first.
	page := domain.Page{
		PageNumber: 1,
		Spans: []domain.Span{
			{Text: "second", BBox: domain.BBox{X1: 50, Y1: 120, X2: 200, Y2: 140}},
			{Text: "right", BBox: domain.BBox{X1: 300, Y1: 100, X2: 400, Y2: 120}},
			{Text: "left", BBox: domain.BBox{X1: 50, Y1: 100, X2: 200, Y2: 120}},
		},
	}

	chunks := s.Segment([]domain.Page{page}, "doc")

	require.Len(t, chunks, 1)
	assert.Equal(t, "left right second", chunks[0].Text)
}

func TestSegmenter_Segment_TargetBudgetFlush(t *testing.T) {
	s := New(WithTargetSize(10), WithMaxSize(20), WithMinSize(2), WithClock(fixedClock))

	page := domain.Page{
		PageNumber: 1,
		Spans: []domain.Span{
			span("alpha beta gamma delta", 100),
			span("epsilon zeta eta theta", 140),
			span("iota kappa lambda mu", 180),
		},
	}

	chunks := s.Segment([]domain.Page{page}, "doc")

	// 4+4 tokens fit the target of 10; the third paragraph would
	// overflow, so it starts a fresh chunk.
	require.Len(t, chunks, 2)
	assert.Equal(t, "alpha beta gamma delta\n\nepsilon zeta eta theta", chunks[0].Text)
	assert.Equal(t, "iota kappa lambda mu", chunks[1].Text)
	assert.Equal(t, "doc_p1_c0", chunks[0].ChunkID)
	assert.Equal(t, "doc_p1_c1", chunks[1].ChunkID)

	assertContiguous(t, chunks)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 46, chunks[0].CharEnd)
	assert.Equal(t, 46, chunks[1].CharStart)
	assert.Equal(t, 66, chunks[1].CharEnd)
}

func TestSegmenter_Segment_LongParagraphSplit(t *testing.T) {
	s := New(WithTargetSize(10), WithMaxSize(20), WithMinSize(2), WithClock(fixedClock))

	first := "one two three four five six seven eight nine."
	second := " ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen."
	third := " nineteen twenty alpha beta gamma delta epsilon zeta eta."

	page := domain.Page{
		PageNumber: 1,
		Spans:      []domain.Span{span(first+second+third, 100)},
	}

	chunks := s.Segment([]domain.Page{page}, "doc")

	// 27 tokens exceed the max of 20, so the paragraph is sentence-split;
	// two sentences fit a part, the third starts the next one.
	require.Len(t, chunks, 2)
	assert.Equal(t, first+second, chunks[0].Text)
	assert.Equal(t, third, chunks[1].Text)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.TokenCount, 20)
	}
	assertContiguous(t, chunks)

	// Both parts carry the source paragraph's box.
	assert.Equal(t, chunks[0].BBox, chunks[1].BBox)
	assert.Equal(t, 50.0, chunks[0].BBox.X1)
}

func TestSegmenter_Segment_GlobalIndexAcrossPages(t *testing.T) {
	s := New(WithClock(fixedClock))

	pages := []domain.Page{
		{PageNumber: 1, Spans: []domain.Span{span("合同双方", 100)}},
		{PageNumber: 2, Spans: []domain.Span{span("按时付款", 100)}},
	}

	chunks := s.Segment(pages, "doc")

	require.Len(t, chunks, 2)
	assert.Equal(t, "doc_p1_c0", chunks[0].ChunkID)
	assert.Equal(t, "doc_p2_c1", chunks[1].ChunkID)

	// Character offsets keep running across page boundaries.
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 4, chunks[0].CharEnd)
	assert.Equal(t, 4, chunks[1].CharStart)
	assert.Equal(t, 8, chunks[1].CharEnd)
}

func TestSegmenter_Segment_EmptyPages(t *testing.T) {
	s := New(WithClock(fixedClock))

	t.Run("no spans", func(t *testing.T) {
		chunks := s.Segment([]domain.Page{{PageNumber: 1}}, "doc")
		assert.Empty(t, chunks)
	})

	t.Run("whitespace spans only", func(t *testing.T) {
		page := domain.Page{
			PageNumber: 1,
			Spans:      []domain.Span{span("   ", 100), span("\t\n", 140)},
		}
		chunks := s.Segment([]domain.Page{page}, "doc")
		assert.Empty(t, chunks)
	})

	t.Run("no pages", func(t *testing.T) {
		chunks := s.Segment(nil, "doc")
		assert.Empty(t, chunks)
	})
}

func TestSegmenter_Segment_Deterministic(t *testing.T) {
	s := New(WithClock(fixedClock))

	pages := []domain.Page{
		{
			PageNumber: 1,
			Spans: []domain.Span{
				span("第一条 保密义务", 50),
				span("双方应对商业秘密严格保密，不得泄露。", 90),
				span("第二条 违约责任", 130),
				span("违约方应赔偿由此造成的全部损失。", 170),
			},
		},
		{
			PageNumber: 2,
			Spans: []domain.Span{
				span("第三条 争议解决", 50),
				span("双方发生纠纷的，提交仲裁委员会仲裁。", 90),
			},
		},
	}

	first := s.Segment(pages, "doc")
	second := s.Segment(pages, "doc")

	require.Equal(t, first, second)
	assertContiguous(t, first)
}

func TestSegmenter_Segment_MetadataPropagation(t *testing.T) {
	s := New(WithClock(fixedClock))

	page := domain.Page{
		PageNumber: 1,
		Spans: []domain.Span{
			{
				Text:     "第一条 标题",
				BBox:     domain.BBox{X1: 50, Y1: 100, X2: 200, Y2: 120},
				FontSize: 16,
				FontName: "SimHei",
				Bold:     true,
			},
			{
				Text:     "正文内容",
				BBox:     domain.BBox{X1: 50, Y1: 115, X2: 400, Y2: 135},
				FontSize: 12,
				FontName: "SimSun",
			},
		},
	}

	chunks := s.Segment([]domain.Page{page}, "doc")

	require.Len(t, chunks, 1)
	metadata := chunks[0].Metadata

	// Later spans override font attributes; bold sticks once seen.
	assert.Equal(t, 12.0, metadata["font_size"])
	assert.Equal(t, "SimSun", metadata["font_name"])
	assert.Equal(t, true, metadata["is_bold"])
}

func TestMergeBoxes(t *testing.T) {
	t.Run("no boxes gives zero box", func(t *testing.T) {
		merged := mergeBoxes(nil)
		assert.True(t, merged.IsZero())
	})

	t.Run("covering box with geometry from first", func(t *testing.T) {
		merged := mergeBoxes([]domain.BBox{
			{X1: 100, Y1: 50, X2: 300, Y2: 70, PageWidth: 595, PageHeight: 842},
			{X1: 50, Y1: 80, X2: 500, Y2: 100},
		})

		assert.Equal(t, 50.0, merged.X1)
		assert.Equal(t, 50.0, merged.Y1)
		assert.Equal(t, 500.0, merged.X2)
		assert.Equal(t, 100.0, merged.Y2)
		assert.Equal(t, 595.0, merged.PageWidth)
		assert.Equal(t, 842.0, merged.PageHeight)
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "chinese punctuation",
			text:     "第一句。第二句！第三句？",
			expected: []string{"第一句。", "第二句！", "第三句？"},
		},
		{
			name:     "latin punctuation",
			text:     "First. Second! Third?",
			expected: []string{"First.", " Second!", " Third?"},
		},
		{
			name:     "trailing text without punctuation",
			text:     "完整句子。结尾没有标点",
			expected: []string{"完整句子。", "结尾没有标点"},
		},
		{
			name:     "no punctuation at all",
			text:     "没有标点的一段话",
			expected: []string{"没有标点的一段话"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitSentences(tt.text))
		})
	}
}

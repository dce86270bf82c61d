package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

func record(chunkID, docID, clauseHint string, embedding []float32) domain.VectorRecord {
	return domain.VectorRecord{
		ChunkID:    chunkID,
		DocID:      docID,
		Text:       "text for " + chunkID,
		Embedding:  embedding,
		Page:       1,
		ClauseHint: clauseHint,
	}
}

func TestIndex_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "payment", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("c2", "doc1", "liability", []float32{0, 1})))
	require.NoError(t, idx.Add(ctx, record("c3", "doc2", "payment", []float32{0.6, 0.8})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.Equal(t, "c2", hits[2].ChunkID)

	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.6, hits[1].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestIndex_Add_Validation(t *testing.T) {
	ctx := context.Background()
	idx := New()

	err := idx.Add(ctx, record("", "doc1", "", []float32{1, 0}))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = idx.Add(ctx, record("c1", "doc1", "", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "", []float32{1, 0})))
	err = idx.Add(ctx, record("c2", "doc1", "", []float32{1, 0, 0}))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Add_UpsertsByChunkID(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "payment", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "delivery", []float32{0, 1})))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, map[string]int{"delivery": 1}, stats.ClauseCounts)
}

func TestIndex_AddBatch_SkipsRecordsWithoutEmbeddings(t *testing.T) {
	ctx := context.Background()
	idx := New()

	err := idx.AddBatch(ctx, []domain.VectorRecord{
		record("c1", "doc1", "payment", []float32{1, 0}),
		record("c2", "doc1", "payment", nil),
		record("c3", "doc1", "payment", []float32{0, 1}),
	})
	require.NoError(t, err)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks)
}

func TestIndex_Search_FiltersBeforeTruncation(t *testing.T) {
	ctx := context.Background()
	idx := New()

	// The two best-scoring records belong to doc1. Filtering on doc2
	// must still surface doc2's records rather than an empty page.
	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "payment", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("c2", "doc1", "payment", []float32{0.9, 0.1})))
	require.NoError(t, idx.Add(ctx, record("c3", "doc2", "payment", []float32{0.1, 0.9})))
	require.NoError(t, idx.Add(ctx, record("c4", "doc2", "liability", []float32{0, 1})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2, domain.SearchFilter{DocID: "doc2"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c3", hits[0].ChunkID)
	assert.Equal(t, "c4", hits[1].ChunkID)

	hits, err = idx.Search(ctx, []float32{1, 0}, 1, domain.SearchFilter{DocID: "doc2", ClauseHint: "liability"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c4", hits[0].ChunkID)
}

func TestIndex_Search_EqualScoresKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, record("first", "doc1", "", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("second", "doc1", "", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("third", "doc1", "", []float32{1, 0})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
	assert.Equal(t, "third", hits[2].ChunkID)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx := New()

	hits, err := idx.Search(ctx, []float32{1, 0}, 5, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_QueryDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "", []float32{1, 0})))

	_, err := idx.Search(ctx, []float32{1, 0, 0}, 5, domain.SearchFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_DeleteByDoc(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "payment", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("c2", "doc2", "payment", []float32{0, 1})))
	require.NoError(t, idx.Add(ctx, record("c3", "doc1", "delivery", []float32{1, 1})))

	removed, err := idx.DeleteByDoc(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = idx.DeleteByDoc(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	hits, err := idx.Search(ctx, []float32{0, 1}, 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestIndex_Stats(t *testing.T) {
	ctx := context.Background()
	idx := New()

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, 0, stats.Dimension)

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "payment", []float32{1, 0, 0})))
	require.NoError(t, idx.Add(ctx, record("c2", "doc1", "payment", []float32{0, 1, 0})))
	require.NoError(t, idx.Add(ctx, record("c3", "doc2", "liability", []float32{0, 0, 1})))

	stats, err = idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, map[string]int{"doc1": 2, "doc2": 1}, stats.DocumentCounts)
	assert.Equal(t, map[string]int{"payment": 2, "liability": 1}, stats.ClauseCounts)
	assert.Equal(t, 3, stats.Dimension)
}

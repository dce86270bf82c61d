package ivf

import (
	"context"
	"fmt"
	"math"
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

// seedClusters inserts two well-separated clusters, alternating so the
// k-means seeds land one per cluster.
func seedClusters(t *testing.T, idx *Index) {
	t.Helper()
	ctx := context.Background()

	alpha := [][]float32{{1, 0}, {0.98, 0.02}, {0.95, 0.05}, {0.9, 0.1}}
	beta := [][]float32{{0, 1}, {0.02, 0.98}, {0.05, 0.95}, {0.1, 0.9}}

	for i := range alpha {
		require.NoError(t, idx.Add(ctx, record(fmt.Sprintf("a%d", i), "alpha", "payment", alpha[i])))
		require.NoError(t, idx.Add(ctx, record(fmt.Sprintf("b%d", i), "beta", "liability", beta[i])))
	}
}

func TestIndex_Search_BruteForceBelowThreshold(t *testing.T) {
	ctx := context.Background()
	idx := New() // default threshold far above the handful of records here

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "", []float32{1, 0})))
	require.NoError(t, idx.Add(ctx, record("c2", "doc1", "", []float32{0, 1})))
	require.NoError(t, idx.Add(ctx, record("c3", "doc1", "", []float32{0.6, 0.8})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.Equal(t, "c2", hits[2].ChunkID)

	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.6, hits[1].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)

	assert.False(t, idx.trained())
}

func TestIndex_Search_ScoreIgnoresQueryMagnitude(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, record("c1", "doc1", "", []float32{3, 0})))

	hits, err := idx.Search(ctx, []float32{7, 0}, 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestIndex_Search_TrainedProbesNearestLists(t *testing.T) {
	ctx := context.Background()
	idx := New(WithLists(2), WithProbes(1), WithTrainThreshold(4))

	seedClusters(t, idx)

	hits, err := idx.Search(ctx, []float32{1, 0}, 3, domain.SearchFilter{})
	require.NoError(t, err)
	require.True(t, idx.trained())
	require.Len(t, hits, 3)

	// With a single probe only the alpha cluster's list is visited.
	for _, hit := range hits {
		assert.Equal(t, "alpha", hit.DocID)
	}
	assert.Equal(t, "a0", hits[0].ChunkID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestIndex_Search_FallsBackWhenProbedListsMissFilter(t *testing.T) {
	ctx := context.Background()
	idx := New(WithLists(2), WithProbes(1), WithTrainThreshold(4))

	seedClusters(t, idx)

	// The query points at the alpha cluster but the filter only admits
	// beta records, so the probed list yields nothing. The index must
	// rescan exactly rather than return an empty result.
	hits, err := idx.Search(ctx, []float32{1, 0}, 2, domain.SearchFilter{DocID: "beta"})
	require.NoError(t, err)
	require.True(t, idx.trained())
	require.Len(t, hits, 2)
	for _, hit := range hits {
		assert.Equal(t, "beta", hit.DocID)
	}
}

func TestIndex_Search_Deterministic(t *testing.T) {
	ctx := context.Background()
	idx := New(WithLists(2), WithProbes(2), WithTrainThreshold(4))

	seedClusters(t, idx)

	first, err := idx.Search(ctx, []float32{0.7, 0.7}, 8, domain.SearchFilter{})
	require.NoError(t, err)
	second, err := idx.Search(ctx, []float32{0.7, 0.7}, 8, domain.SearchFilter{})
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestIndex_Add_UpsertMovesRecordBetweenLists(t *testing.T) {
	ctx := context.Background()
	idx := New(WithLists(2), WithProbes(1), WithTrainThreshold(4))

	seedClusters(t, idx)

	// Trigger training, then flip a0 from the alpha side to the beta side.
	_, err := idx.Search(ctx, []float32{1, 0}, 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, record("a0", "alpha", "payment", []float32{0, 1})))

	hits, err := idx.Search(ctx, []float32{0, 1}, 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a0", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalChunks)
}

func TestIndex_DeleteByDoc_AfterTraining(t *testing.T) {
	ctx := context.Background()
	idx := New(WithLists(2), WithProbes(2), WithTrainThreshold(4))

	seedClusters(t, idx)
	_, err := idx.Search(ctx, []float32{1, 0}, 1, domain.SearchFilter{})
	require.NoError(t, err)

	removed, err := idx.DeleteByDoc(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 4)
	for _, hit := range hits {
		assert.Equal(t, "beta", hit.DocID)
	}
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

	_, err = idx.Search(ctx, []float32{1, 0, 0}, 5, domain.SearchFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Stats(t *testing.T) {
	ctx := context.Background()
	idx := New()

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)
	assert.Equal(t, 0, stats.Dimension)

	seedClusters(t, idx)

	stats, err = idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, map[string]int{"alpha": 4, "beta": 4}, stats.DocumentCounts)
	assert.Equal(t, map[string]int{"payment": 4, "liability": 4}, stats.ClauseCounts)
	assert.Equal(t, 2, stats.Dimension)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var norm float64
	for _, x := range normalize([]float32{0.1, 0.2, 0.7}) {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
